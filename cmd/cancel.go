package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/x/term"
	"github.com/devnotmax/studify/internal/ports"
	"github.com/spf13/cobra"
)

var cancelYes bool

// cancelCmd represents the cancel command
var cancelCmd = &cobra.Command{
	Use:   "cancel",
	Short: "Cancel the current session without saving it",
	Long: `Cancel the current session. Nothing is recorded and your streak is
not affected. You are asked to confirm unless --yes is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		confirm := ports.Confirmed
		if !cancelYes {
			confirm = promptConfirmer(cmd.InOrStdin(), cmd.OutOrStdout())
		}

		if err := app.controller.Cancel(cmd.Context(), confirm); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "🗑️  Session cancelled.")
		return nil
	},
}

func init() {
	cancelCmd.Flags().BoolVarP(&cancelYes, "yes", "y", false, "Skip the confirmation prompt")
}

// promptConfirmer asks on in. Without a terminal on stdin nothing can be
// confirmed, so the answer is no.
func promptConfirmer(in io.Reader, out io.Writer) ports.Confirmer {
	return ports.ConfirmFunc(func(ctx context.Context, prompt string) (bool, error) {
		if f, ok := in.(*os.File); ok && !term.IsTerminal(f.Fd()) {
			return false, nil
		}
		fmt.Fprintf(out, "%s [y/N] ", prompt)
		answer, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && answer == "" {
			return false, nil
		}
		answer = strings.ToLower(strings.TrimSpace(answer))
		return answer == "y" || answer == "yes", nil
	})
}
