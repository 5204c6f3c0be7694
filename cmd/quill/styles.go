package main

import (
	"github.com/spf13/cobra"

	"github.com/matsen/quill/internal/style"
)

func init() {
	rootCmd.AddCommand(stylesCmd)
}

var stylesCmd = &cobra.Command{
	Use:   "styles",
	Short: "List the supported citation styles",
	Args:  cobra.NoArgs,
	RunE:  runStyles,
}

// StyleInfo describes one citation style.
type StyleInfo struct {
	Name    string `json:"name"`
	Numeric bool   `json:"numeric"`
	Heading string `json:"heading"`
	Default bool   `json:"default,omitempty"`
}

func runStyles(cmd *cobra.Command, args []string) error {
	var infos []StyleInfo
	for _, st := range style.All() {
		infos = append(infos, StyleInfo{
			Name:    st.String(),
			Numeric: st.Numeric(),
			Heading: st.Heading(),
			Default: st == style.Default,
		})
	}

	if humanOutput {
		for _, info := range infos {
			marker := " "
			if info.Default {
				marker = "*"
			}
			outputHuman("%s %s\n", marker, info.Name)
		}
		return nil
	}
	return outputJSON(infos)
}
