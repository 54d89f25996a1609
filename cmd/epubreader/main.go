package main

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/okabe/epubreader/internal/config"
	"github.com/okabe/epubreader/internal/progress"
	"github.com/okabe/epubreader/internal/session"
)

var rootCmd = &cobra.Command{
	Use:   "epubreader [epub file]",
	Short: "Read EPUB books in the terminal, resuming where you left off",
	Long: `epubreader opens an EPUB book, shows it one page at a time and
remembers the last-read position per book, so reopening a book
continues exactly where you stopped.

Commands inside the reader:
  n        next page
  p        previous page
  g <num>  go to chapter
  t        list chapters
  q        quit`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		logger, err := zap.NewProduction()
		if err != nil {
			log.Fatalf("failed to create logger: %v", err)
		}
		defer logger.Sync()

		store, err := progress.OpenBolt(cfg.StorePath)
		if err != nil {
			return fmt.Errorf("failed to open progress store: %w", err)
		}
		defer store.Close()

		sess := session.New(store, logger, cfg.PageSize)
		if err := sess.Open(args[0]); err != nil {
			return err
		}

		render(cmd.OutOrStdout(), sess)
		return commandLoop(sess, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	defaultConfig := filepath.Join(home, ".epubreader", "config.yaml")
	rootCmd.Flags().StringP("config", "c", defaultConfig, "Config file path")
}

func commandLoop(sess *session.Session, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprint(out, "> ")
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			fmt.Fprint(out, "> ")
			continue
		}

		switch fields[0] {
		case "n":
			sess.NextPage()
			render(out, sess)
		case "p":
			sess.PrevPage()
			render(out, sess)
		case "g":
			if len(fields) < 2 {
				fmt.Fprintln(out, "usage: g <chapter number>")
				break
			}
			index, err := strconv.Atoi(fields[1])
			if err != nil {
				fmt.Fprintln(out, "usage: g <chapter number>")
				break
			}
			sess.GotoChapter(index)
			render(out, sess)
		case "t":
			for i, label := range sess.ChapterLabels() {
				fmt.Fprintf(out, "%3d  %s\n", i, label)
			}
		case "q":
			return nil
		default:
			fmt.Fprintln(out, "commands: n, p, g <num>, t, q")
		}
		fmt.Fprint(out, "> ")
	}
	return scanner.Err()
}

func render(out io.Writer, sess *session.Session) {
	v := sess.View()
	switch v.State {
	case session.CoverShown:
		fmt.Fprintf(out, "\n[cover image, %d bytes]\n", len(v.Cover))
	case session.PageShown:
		fmt.Fprintf(out, "\n%s\n\n--- %s ---\n", v.Text, v.Label)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
