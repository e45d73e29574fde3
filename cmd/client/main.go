package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/framechat/internal/client"
	"github.com/vovakirdan/framechat/internal/proto"
)

var (
	addr   string
	name   string
	overWS bool
)

var rootCmd = &cobra.Command{
	Use:          "framechat-client",
	Short:        "Join a framechat room",
	SilenceUsage: true,
	RunE:         runClient,
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&addr, "addr", "127.0.0.1:1111", "server address (host:port, or a ws:// URL with --ws)")
	flags.StringVar(&name, "name", "", "chat name; asked for interactively when empty or invalid")
	flags.BoolVar(&overWS, "ws", false, "connect through the WebSocket gateway")
}

func runClient(cmd *cobra.Command, _ []string) error {
	input := bufio.NewScanner(cmd.InOrStdin())
	out := cmd.OutOrStdout()

	userName, err := resolveName(input, out, name)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := client.Dial(ctx, addr, overWS)
	if err != nil {
		return err
	}

	console := client.NewConsole(os.Stdout)
	console.Print(proto.Help)
	console.ShowPrompt()

	lines := make(chan string)
	go func() {
		defer close(lines)
		for input.Scan() {
			select {
			case lines <- input.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	err = client.NewDriver(conn, userName, console).Run(ctx, lines)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// resolveName keeps asking until the name can be used on the wire.
func resolveName(input *bufio.Scanner, out io.Writer, candidate string) (string, error) {
	if candidate == "" {
		fmt.Fprint(out, "To join the chat, enter your name: ")
		if !input.Scan() {
			return "", errors.New("no name given")
		}
		candidate = strings.TrimRight(input.Text(), "\r")
	}
	for {
		err := proto.ValidateName(candidate)
		if err == nil {
			return candidate, nil
		}
		fmt.Fprintf(out, "Your %s. Please enter a different name: ", err)
		if !input.Scan() {
			return "", errors.New("no valid name given")
		}
		candidate = strings.TrimRight(input.Text(), "\r")
	}
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
