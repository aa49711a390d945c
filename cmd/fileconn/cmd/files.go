package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/treeverse/fileconn/connection"
)

var catCmd = &cobra.Command{
	Use:   "cat <path>",
	Short: "Print the content of a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		binary, _ := cmd.Flags().GetBool("binary")
		return withConnection(func(c *connection.Connection) error {
			out := cmd.OutOrStdout()
			if binary {
				data, err := c.ReadBytes(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				_, err = out.Write(data)
				return err
			}
			text, err := c.ReadText(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, err = io.WriteString(out, text)
			return err
		})
	},
}

var putCmd = &cobra.Command{
	Use:   "put <path> [local file]",
	Short: "Upload a local file, or stdin, to path",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 2 {
			return withConnection(func(c *connection.Connection) error {
				if err := c.Upload(cmd.Context(), args[1], args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "uploaded %s to %s\n", args[1], args[0])
				return nil
			})
		}
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		return withConnection(func(c *connection.Connection) error {
			if err := c.WriteBytes(cmd.Context(), args[0], data); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d bytes to %s\n", len(data), args[0])
			return nil
		})
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm <path>",
	Short: "Remove a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withConnection(func(c *connection.Connection) error {
			return c.Remove(cmd.Context(), args[0])
		})
	},
}

var existsCmd = &cobra.Command{
	Use:   "exists <path>",
	Short: "Print whether a file exists",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withConnection(func(c *connection.Connection) error {
			ok, err := c.Exists(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ok)
			return nil
		})
	},
}

func init() {
	catCmd.Flags().Bool("binary", false, "read in binary mode")
	rootCmd.AddCommand(catCmd, putCmd, rmCmd, existsCmd)
}
