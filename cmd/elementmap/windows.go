package main

import (
	"github.com/spf13/cobra"

	"github.com/zoeyai/elementmap/pkg/uia"
)

func newWindowsCmd(root *rootOptions) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "windows",
		Short: "列出可见的顶层窗口",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			if _, err := root.loadConfig(); err != nil {
				return err
			}

			d := uia.NewDetector(uia.NewBackend())
			defer d.Close()

			windows, err := d.Windows(cmd.Context())
			if err != nil {
				return err
			}
			return writeWindows(cmd.OutOrStdout(), windows, format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", formatText, "输出格式 text/json/yaml")
	return cmd
}
