package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Dicklesworthstone/diveboard/internal/fileio"
	"github.com/spf13/cobra"
)

var (
	flagFileFields    string
	flagFileFollowFor time.Duration
)

func init() {
	fileReadCmd.Flags().StringVar(&flagFileFields, "fields", "", "split each line on this delimiter")
	fileFollowCmd.Flags().DurationVar(&flagFileFollowFor, "for", 0, "stop following after this long (default: until interrupted)")

	fileCmd.AddCommand(fileCreateCmd)
	fileCmd.AddCommand(fileReadCmd)
	fileCmd.AddCommand(fileWriteCmd)
	fileCmd.AddCommand(fileAppendCmd)
	fileCmd.AddCommand(fileEraseCmd)
	fileCmd.AddCommand(fileDeleteCmd)
	fileCmd.AddCommand(fileExistsCmd)
	fileCmd.AddCommand(fileFollowCmd)

	rootCmd.AddCommand(fileCmd)
}

var fileCmd = &cobra.Command{
	Use:   "file",
	Short: "Create, read, write and delete a text file",
}

type fileView struct {
	Path   string `json:"path"`
	Action string `json:"action"`
	Exists bool   `json:"exists"`
}

func writeFileAction(cmd *cobra.Command, f *fileio.Handle, action string) error {
	out := newWriter(cmd)
	view := fileView{Path: f.Path(), Action: action, Exists: f.Exists()}
	if out.Structured() {
		return out.Write(view)
	}
	out.Success(fmt.Sprintf("%s %s", action, view.Path))
	return nil
}

var fileCreateCmd = &cobra.Command{
	Use:   "create <path>",
	Short: "Create a new empty file (fails if it exists)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f := fileio.New(args[0])
		if err := f.Create(); err != nil {
			return err
		}
		return writeFileAction(cmd, f, "created")
	},
}

var fileWriteCmd = &cobra.Command{
	Use:   "write <path> <content>",
	Short: "Replace the file's content",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		f := fileio.New(args[0])
		if err := f.WriteToFile(unescapeContent(args[1])); err != nil {
			return err
		}
		return writeFileAction(cmd, f, "wrote")
	},
}

var fileAppendCmd = &cobra.Command{
	Use:   "append <path> <content>",
	Short: "Append to the file, creating it when missing",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		f := fileio.New(args[0])
		if err := f.AppendToFile(unescapeContent(args[1])); err != nil {
			return err
		}
		return writeFileAction(cmd, f, "appended")
	},
}

var fileEraseCmd = &cobra.Command{
	Use:   "erase <path>",
	Short: "Truncate the file to zero length",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f := fileio.New(args[0])
		if err := f.EraseContent(); err != nil {
			return err
		}
		return writeFileAction(cmd, f, "erased")
	},
}

var fileDeleteCmd = &cobra.Command{
	Use:   "delete <path>",
	Short: "Delete the file (a missing file only logs a warning)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f := fileio.New(args[0])
		if err := f.Delete(); err != nil {
			return err
		}
		return writeFileAction(cmd, f, "deleted")
	},
}

var fileExistsCmd = &cobra.Command{
	Use:   "exists <path>",
	Short: "Report whether the path exists",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f := fileio.New(args[0])
		out := newWriter(cmd)
		if out.Structured() {
			return out.Write(map[string]any{"path": f.Path(), "exists": f.Exists()})
		}
		return out.Write(f.Exists())
	},
}

var fileReadCmd = &cobra.Command{
	Use:   "read <path>",
	Short: "Print the file line by line",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f := fileio.New(args[0])
		if err := f.OpenReader(); err != nil {
			return err
		}
		defer f.CloseReader()

		out := newWriter(cmd)
		if flagFileFields != "" {
			var rows [][]string
			for {
				fields, err := f.ReadFields(flagFileFields)
				if err != nil {
					return err
				}
				if len(fields) == 0 {
					break
				}
				last := len(fields) - 1
				fields[last] = strings.TrimSuffix(fields[last], "\n")
				rows = append(rows, fields)
			}
			if out.Structured() {
				if rows == nil {
					rows = [][]string{}
				}
				return out.Write(rows)
			}
			for _, row := range rows {
				fmt.Fprintln(cmd.OutOrStdout(), strings.Join(row, "\t"))
			}
			return nil
		}

		var lines []string
		for {
			line, err := f.ReadLine()
			if err != nil {
				return err
			}
			if line == "" {
				break
			}
			lines = append(lines, strings.TrimSuffix(line, "\n"))
		}
		return out.List(lines)
	},
}

var fileFollowCmd = &cobra.Command{
	Use:   "follow <path>",
	Short: "Print lines appended to the file until interrupted",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if flagFileFollowFor > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, flagFileFollowFor)
			defer cancel()
		}

		out := newWriter(cmd)
		f := fileio.New(args[0])
		return f.Follow(ctx, func(line string) error {
			line = strings.TrimSuffix(line, "\n")
			if out.Structured() {
				return out.WriteNDJSON(map[string]string{"path": f.Path(), "line": line})
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), line)
			return err
		})
	},
}

// unescapeContent turns the two-character sequences \n and \t into the
// characters they name, so shell users can pass multi-line content.
func unescapeContent(s string) string {
	return strings.NewReplacer(`\n`, "\n", `\t`, "\t").Replace(s)
}
