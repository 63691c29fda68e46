package ingest

import (
	"context"
	"regexp"
	"time"
	"unicode/utf8"

	"github.com/akolanti/docqa/internal/domain/docModel"
	"github.com/akolanti/docqa/internal/rag/extract"
	"github.com/akolanti/docqa/internal/rag/vectorDB"
	"github.com/akolanti/docqa/pkg/logger_i"
)

type extractOutcome struct {
	result extract.Result
	err    error
}

// embedOutcome is aligned with the chunks; a nil vector is a chunk that
// could not be embedded.
type embedOutcome struct {
	vectors  [][]float32
	embedded int
}

type storeOutcome struct {
	result vectorDB.UpsertResult
	stored map[int]bool
}

func (p *Pipeline) extract(ctx context.Context, doc docModel.Document) extractOutcome {
	res, err := p.extractor.Extract(ctx, doc.FilePath)
	return extractOutcome{result: res, err: err}
}

func (p *Pipeline) split(doc docModel.Document, text string) []docModel.Chunk {
	pieces := p.chunker.Split(text)
	pages := pageMarkers(text)
	now := time.Now().UTC()

	chunks := make([]docModel.Chunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = docModel.Chunk{
			Id:         docModel.ChunkKey(doc.Id, piece.Index),
			DocumentId: doc.Id,
			Index:      piece.Index,
			Text:       piece.Text,
			CharStart:  piece.Start,
			CharEnd:    piece.End,
			Locator:    pages.at(piece.Start),
			CreatedAt:  now,
		}
	}
	return chunks
}

func (p *Pipeline) embed(ctx context.Context, chunks []docModel.Chunk) embedOutcome {
	if len(chunks) == 0 {
		return embedOutcome{}
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	out := embedOutcome{vectors: p.embedder.EmbedBatch(ctx, texts, p.batchSize)}
	for _, v := range out.vectors {
		if v != nil {
			out.embedded++
		}
	}
	return out
}

func (p *Pipeline) store(ctx context.Context, log *logger_i.Logger, doc docModel.Document, chunks []docModel.Chunk, emb embedOutcome) storeOutcome {
	out := storeOutcome{stored: map[int]bool{}}
	out.result.Failed = len(chunks)
	if emb.embedded == 0 || p.vectors == nil {
		if len(chunks) > 0 {
			log.Warn("skipping vector storage", "embedded", emb.embedded, "vectorStore", p.vectors != nil)
		}
		return out
	}

	res, err := p.vectors.Upsert(ctx, doc.CollectionId, doc, chunks, emb.vectors)
	if err != nil {
		log.Error("vector upsert failed", "error", err)
		return out
	}
	out.result = res
	for _, idx := range res.StoredIndexes {
		out.stored[idx] = true
	}
	return out
}

func applyStored(chunks []docModel.Chunk, stored map[int]bool, model string) {
	for i := range chunks {
		if stored[chunks[i].Index] {
			chunks[i].VectorId = chunks[i].Id
			chunks[i].EmbeddingModel = model
		}
	}
}

var pageMarker = regexp.MustCompile(`\[Page (\d+)\]`)

type pageStart struct {
	offset int
	page   string
}

type pageIndex []pageStart

// pageMarkers finds the "[Page n]" headers written by the PDF extractor,
// as rune offsets.
func pageMarkers(text string) pageIndex {
	var idx pageIndex
	prevByte, prevRune := 0, 0
	for _, m := range pageMarker.FindAllStringSubmatchIndex(text, -1) {
		prevRune += utf8.RuneCountInString(text[prevByte:m[0]])
		prevByte = m[0]
		idx = append(idx, pageStart{offset: prevRune, page: text[m[2]:m[3]]})
	}
	return idx
}

// at returns the page a chunk starting at offset belongs to. A chunk that
// begins just before a marker is attributed to the previous page.
func (idx pageIndex) at(offset int) string {
	page := ""
	for _, m := range idx {
		if m.offset > offset {
			break
		}
		page = m.page
	}
	if page == "" {
		return ""
	}
	return "page " + page
}
