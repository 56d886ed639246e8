package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"noteferry/internal/adapters/markdown"
	"noteferry/internal/application"
	"noteferry/internal/domain"
	"noteferry/internal/ports"
)

var (
	importConcurrency int
	importDelay       time.Duration
	importSkipEmpty   bool
	importStopOnErr   bool
	importAlwaysAsk   bool
	importOnExists    string
	importBackup      bool
	importAutoSkip    bool
)

var importCmd = &cobra.Command{
	Use:   "import [document-id...]",
	Short: "Import remote documents into the vault",
	Long: `Fetch the remote document batch and import it into the vault. With
document ids as arguments only those documents are imported; otherwise
the whole batch is.

Conflicts are resolved interactively on stdin unless --auto-skip is set,
in which case conflicted documents are skipped and reported.

Examples:
  noteferry-cli import
  noteferry-cli import 01HVX3 01HVX4
  noteferry-cli import --on-exists update --backup
  noteferry-cli import --auto-skip --concurrency 8`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		opts, err := importOptions()
		if err != nil {
			return err
		}

		var resolver ports.ConflictResolver
		if importAutoSkip {
			resolver = autoSkipResolver{}
		} else {
			resolver = newPromptResolver()
		}

		var mu sync.Mutex
		tracker := application.NewTracker(nil, func(doc domain.DocumentProgress) {
			if !doc.State.Terminal() {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			switch doc.State {
			case domain.StateCompleted:
				fmt.Printf("imported  %q -> %s\n", doc.Title, doc.ResultingFile)
			case domain.StateSkipped:
				fmt.Printf("skipped   %q: %s\n", doc.Title, doc.Message)
			case domain.StateFailed:
				fmt.Printf("failed    %q: %s\n", doc.Title, doc.Error)
			}
		})

		importer := application.NewImporter(
			vault, index, markdown.NewConverter(), resolver,
			tracker, application.NewFailureRegistry(), logger,
		)

		docs, err := fetcher.FetchDocuments(ctx)
		if err != nil {
			return err
		}

		selection := selectDocs(docs, args)
		if len(selection) == 0 {
			fmt.Println("nothing to import")
			return nil
		}

		run, err := importer.ImportDocuments(ctx, selection, docs, opts)
		if err != nil {
			return err
		}
		printSummary(run)

		for run.Failed > 0 && !importAutoSkip && confirm(fmt.Sprintf("retry %d failed import(s)?", run.Failed)) {
			run, err = importer.RetryFailedImports(ctx, opts)
			if err != nil {
				return err
			}
			printSummary(run)
		}
		return nil
	},
}

func importOptions() (application.Options, error) {
	opts := application.Options{
		Concurrency:    importConcurrency,
		AdmissionDelay: importDelay,
		SkipEmpty:      importSkipEmpty,
		StopOnError:    importStopOnErr,
		AlwaysAsk:      importAlwaysAsk,
		Backup:         importBackup,
	}
	switch importOnExists {
	case "skip":
		opts.ExistsStrategy = application.ExistsSkip
	case "update":
		opts.ExistsStrategy = application.ExistsUpdate
	case "create-new":
		opts.ExistsStrategy = application.ExistsCreateNew
	default:
		return opts, fmt.Errorf("invalid --on-exists %q (skip, update, create-new)", importOnExists)
	}
	return opts, nil
}

// selectDocs builds the selection from optional id arguments; no ids
// selects the whole batch.
func selectDocs(docs []domain.RemoteDocument, ids []string) []domain.DocumentMeta {
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	var metas []domain.DocumentMeta
	for _, doc := range docs {
		if len(wanted) == 0 || wanted[doc.ID] {
			metas = append(metas, doc.Meta())
		}
	}
	return metas
}

func printSummary(run domain.ImportRun) {
	fmt.Printf("\n%d/%d imported, %d skipped, %d failed", run.Completed, run.Total, run.Skipped, run.Failed)
	if run.Cancelled {
		fmt.Print(" (cancelled)")
	}
	fmt.Println()
}

func confirm(question string) bool {
	fmt.Printf("%s [y/N] ", question)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// autoSkipResolver answers every conflict with skip.
type autoSkipResolver struct{}

func (autoSkipResolver) Resolve(_ context.Context, c ports.Conflict) (domain.Resolution, error) {
	return domain.SkipResolution("conflict skipped (--auto-skip): " + c.Status.Reason), nil
}

// promptResolver asks on stdin. Prompts are serialized so concurrent
// conflicts never interleave on the terminal.
type promptResolver struct {
	mu     sync.Mutex
	reader *bufio.Reader
}

func newPromptResolver() *promptResolver {
	return &promptResolver{reader: bufio.NewReader(os.Stdin)}
}

func (r *promptResolver) Resolve(ctx context.Context, c ports.Conflict) (domain.Resolution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Printf("\nconflict: %q (%s)\n", c.Document.Title, c.Status.Reason)
	if c.Existing != nil {
		fmt.Printf("existing note: %s\n", c.Existing.Path)
	}

	for {
		if err := ctx.Err(); err != nil {
			return domain.Resolution{}, err
		}
		fmt.Print("[s]kip  [o]verwrite  [b]ackup+overwrite  [m]erge  [p]repend-merge  [r]ename: ")

		line, err := r.reader.ReadString('\n')
		if err != nil {
			return domain.Resolution{}, fmt.Errorf("reading resolution: %w", err)
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "s", "skip", "":
			return domain.SkipResolution("skipped by user"), nil
		case "o", "overwrite":
			return domain.Resolution{Kind: domain.ResolveOverwrite}, nil
		case "b", "backup":
			return domain.Resolution{Kind: domain.ResolveOverwrite, CreateBackup: true}, nil
		case "m", "merge":
			return domain.Resolution{Kind: domain.ResolveMerge, Merge: domain.MergeAppend}, nil
		case "p", "prepend":
			return domain.Resolution{Kind: domain.ResolveMerge, Merge: domain.MergePrepend}, nil
		case "r", "rename":
			fmt.Print("new filename: ")
			name, err := r.reader.ReadString('\n')
			if err != nil {
				return domain.Resolution{}, fmt.Errorf("reading filename: %w", err)
			}
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			if !strings.HasSuffix(name, ".md") {
				name += ".md"
			}
			return domain.Resolution{Kind: domain.ResolveRename, NewFilename: name}, nil
		}
	}
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().IntVar(&importConcurrency, "concurrency", 0, "max documents in flight (default 3)")
	importCmd.Flags().DurationVar(&importDelay, "delay", 0, "pause between document admissions")
	importCmd.Flags().BoolVar(&importSkipEmpty, "skip-empty", false, "skip documents with no meaningful content")
	importCmd.Flags().BoolVar(&importStopOnErr, "stop-on-error", false, "cancel the run on the first failure")
	importCmd.Flags().BoolVar(&importAlwaysAsk, "always-ask", false, "ask before touching any existing note")
	importCmd.Flags().StringVar(&importOnExists, "on-exists", "skip", "what to do with already-imported documents (skip, update, create-new)")
	importCmd.Flags().BoolVar(&importBackup, "backup", false, "back up notes before modifying them")
	importCmd.Flags().BoolVar(&importAutoSkip, "auto-skip", false, "never prompt; skip conflicted documents")
}
