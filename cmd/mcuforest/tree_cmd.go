package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/viettran-edgeAI/MCU-sub008/forest"
	"github.com/viettran-edgeAI/MCU-sub008/tree"
	"github.com/viettran-edgeAI/MCU-sub008/tree/json"
)

type treeCmdConfig struct {
	*rootCmdConfig
	index      int
	jsonOutput bool
}

func treeCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &treeCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Show a tree of a forest",
		Long:  `Show a tree of the forest in the model store as an indented drawing or as JSON`,
		Run: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()
			s, err := openStore(config.cfg.Storage, config.logger)
			if err != nil {
				config.fail(2, err)
			}
			defer s.Close()
			t, err := tree.LoadTree(ctx, s, forest.TreeKey(config.index))
			if err != nil {
				config.fail(3, fmt.Errorf("loading tree %d: %v", config.index, err))
			}
			if config.jsonOutput {
				if err = json.WriteJSONTree(ctx, t, os.Stdout); err != nil {
					config.fail(4, err)
				}
				fmt.Println()
				return
			}
			st := t.Stats()
			fmt.Printf("%s: %d nodes, %d leaves, depth %d\n", t.Name, st.Nodes, st.Leaves, st.Depth)
			fmt.Println(t)
		},
	}
	cmd.Flags().IntVarP(&(config.index), "index", "n", 0, "index of the tree to show")
	cmd.Flags().BoolVar(&(config.jsonOutput), "json", false, "print the tree as JSON")
	return cmd
}
