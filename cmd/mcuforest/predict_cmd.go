package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/viettran-edgeAI/MCU-sub008/forest"
)

type predictCmdConfig struct {
	*rootCmdConfig
}

func predictCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &predictCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "predict [features...]",
		Short: "Predict the label of samples",
		Long: `Use the forest in the model store to predict the label of a sample whose
comma separated feature bins are given as argument, or of every sample read
from STDIN one per line. Samples the forest is not confident about are
predicted as unknown.`,
		Run: func(cmd *cobra.Command, args []string) {
			f, err := config.loadForest(cmd.Context())
			if err != nil {
				config.fail(2, err)
			}
			if len(args) > 0 {
				for _, arg := range args {
					if err = predictLine(os.Stdout, f, arg); err != nil {
						config.fail(3, err)
					}
				}
				return
			}
			scanner := bufio.NewScanner(os.Stdin)
			for scanner.Scan() {
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				if err = predictLine(os.Stdout, f, line); err != nil {
					config.logger.Warn("skipping sample", "sample", line, "error", err)
					fmt.Println("invalid")
				}
			}
			if err = scanner.Err(); err != nil {
				config.fail(4, fmt.Errorf("reading samples: %v", err))
			}
		},
	}
	return cmd
}

func predictLine(w io.Writer, f *forest.Forest, line string) error {
	features, err := parseFeatures(line)
	if err != nil {
		return err
	}
	if n := f.Config().NumFeatures; len(features) != n {
		return fmt.Errorf("expected %d features, got %d", n, len(features))
	}
	label, err := f.Predict(features)
	if err == forest.ErrNoConfidentPrediction {
		_, err = fmt.Fprintln(w, "unknown")
		return err
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, label)
	return err
}

func parseFeatures(line string) ([]uint8, error) {
	tokens := strings.Split(line, ",")
	features := make([]uint8, len(tokens))
	for i, tok := range tokens {
		v, err := strconv.ParseUint(strings.TrimSpace(tok), 10, 8)
		if err != nil {
			return nil, fmt.Errorf("parsing feature %d: %v", i, err)
		}
		features[i] = uint8(v)
	}
	return features, nil
}
