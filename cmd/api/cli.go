package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/akolanti/docqa/internal/config"
	"github.com/akolanti/docqa/internal/domain/docModel"
	"github.com/akolanti/docqa/internal/domain/ragErrors"
	"github.com/akolanti/docqa/internal/mcpServer"
	"github.com/akolanti/docqa/internal/rag"
	"github.com/akolanti/docqa/pkg/logger_i"
	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>",
	Short: "Upload and ingest one file synchronously",
	Long: `Stores the file in the upload directory, records it in the collection and runs
extraction, chunking, embedding and indexing in the foreground.

Examples:
  docqa ingest contract.pdf --collection 6f1c...
  docqa ingest notes.txt --collection handbook --create`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question against a collection",
	Args:  cobra.ExactArgs(1),
	RunE:  runAsk,
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the MCP tools over stdio",
	Long: `Starts the Model Context Protocol server on stdin/stdout for AI assistants.
Logs go to stderr.

Client configuration:
  {
    "mcpServers": {
      "docqa": {"command": "/path/to/docqa", "args": ["mcp"]}
    }
  }`,
	RunE: runMCP,
}

func init() {
	ingestCmd.Flags().StringP("collection", "c", "", "collection id (required)")
	ingestCmd.Flags().Bool("create", false, "create the collection if it does not exist, named after its id")
	_ = ingestCmd.MarkFlagRequired("collection")

	askCmd.Flags().StringP("collection", "c", "", "collection id (required)")
	askCmd.Flags().String("conversation", "", "continue an earlier conversation")
	askCmd.Flags().IntP("top-k", "k", 0, "chunks to retrieve (default from config)")
	askCmd.Flags().Bool("sources", true, "print the documents the answer was built from")
	_ = askCmd.MarkFlagRequired("collection")

	rootCmd.AddCommand(ingestCmd, askCmd, mcpCmd)
}

// cliApp builds the shared services with logs on stderr so stdout stays
// clean for command output.
func cliApp(ctx context.Context) (*app, error) {
	settings, err := loadSettings()
	if err != nil {
		return nil, err
	}
	logger_i.InitWithWriter(os.Stderr, settings)
	return buildApp(ctx, settings)
}

func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(cmd)
	defer cancel()

	collectionId, _ := cmd.Flags().GetString("collection")
	create, _ := cmd.Flags().GetBool("create")

	a, err := cliApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if !a.settings.AllowsExtension(filepath.Ext(args[0])) || !a.formats.Supports(filepath.Ext(args[0])) {
		return fmt.Errorf("file type %q is not allowed", filepath.Ext(args[0]))
	}
	if create {
		if err := ensureCollection(ctx, a, collectionId); err != nil {
			return err
		}
	}

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	doc, err := a.rag.AddDocument(ctx, collectionId, filepath.Base(args[0]), f)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s as %s, ingesting...\n", doc.Filename, doc.Id)

	ingestCtx, cancelIngest := context.WithTimeout(ctx, config.IngestJobTimeout)
	defer cancelIngest()
	out := a.rag.IngestDocument(ingestCtx, doc.Id)

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Status:  %s\n", out.Status)
	fmt.Fprintf(w, "Chunks:  %d\n", out.Chunks)
	fmt.Fprintf(w, "Vectors: %d stored, %d failed\n", out.Stored, out.Failed)
	fmt.Fprintf(w, "Indexed: %t\n", out.Indexed)
	if out.Err != nil {
		return out.Err
	}
	return nil
}

func ensureCollection(ctx context.Context, a *app, id string) error {
	_, err := a.db.GetCollection(ctx, id)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ragErrors.ErrNotFound) {
		return err
	}
	now := time.Now().UTC()
	return a.db.CreateCollection(ctx, docModel.Collection{Id: id, Name: id, CreatedAt: now, UpdatedAt: now})
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(cmd)
	defer cancel()

	collectionId, _ := cmd.Flags().GetString("collection")
	conversationId, _ := cmd.Flags().GetString("conversation")
	topK, _ := cmd.Flags().GetInt("top-k")
	withSources, _ := cmd.Flags().GetBool("sources")

	a, err := cliApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	res, err := a.rag.Query(ctx, rag.QueryRequest{
		CollectionID:   collectionId,
		Question:       args[0],
		ConversationID: conversationId,
		TopK:           topK,
		IncludeSources: withSources,
	})
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, res.Response)
	if res.Failure != nil {
		fmt.Fprintf(w, "\n(%s: %s)\n", res.Failure.Kind, res.Failure.Detail)
	}
	if len(res.Sources) > 0 {
		fmt.Fprintln(w, "\nSources:")
		for _, s := range res.Sources {
			fmt.Fprintf(w, "  %s (chunk %d, score %.3f)\n", s.Filename, s.ChunkIndex, s.Score)
		}
	}
	if res.ConversationID != "" {
		fmt.Fprintf(w, "\nConversation: %s\n", res.ConversationID)
	}
	return nil
}

func runMCP(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signalContext(cmd)
	defer cancel()

	a, err := cliApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	s, err := mcpServer.NewServer(mcpServer.Deps{RAG: a.rag, Collections: a.db, Documents: a.db})
	if err != nil {
		return err
	}
	return s.Run(ctx)
}
