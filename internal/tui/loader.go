package tui

import (
	"bytes"
	"context"
	"fmt"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
	"github.com/rs/zerolog"

	"github.com/colonyops/revdeck/internal/api"
	"github.com/colonyops/revdeck/internal/core/difftable"
	"github.com/colonyops/revdeck/internal/core/logging"
)

// FileLoader builds one file's diff table from the server's raw patch.
type FileLoader struct {
	client   *api.Client
	revision int
	opts     difftable.BuildOptions
	log      zerolog.Logger
}

// NewFileLoader creates a loader for one diff revision.
func NewFileLoader(client *api.Client, revision int, opts difftable.BuildOptions) *FileLoader {
	return &FileLoader{
		client:   client,
		revision: revision,
		opts:     opts,
		log:      logging.Component("loader"),
	}
}

// LoadFile fetches the file's patch and builds its table. Binary files get
// a table with a header row and no chunks.
func (l *FileLoader) LoadFile(ctx context.Context, df difftable.DiffFile) (*difftable.Table, error) {
	if df.Binary {
		return difftable.Build(df, nil, l.opts), nil
	}

	patch, err := l.client.GetPatch(ctx, l.revision, df.FileDiffID)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", df.ModifiedFilename, err)
	}

	files, _, err := gitdiff.Parse(bytes.NewReader(patch))
	if err != nil {
		return nil, fmt.Errorf("parse patch for %s: %w", df.ModifiedFilename, err)
	}

	var parsed *gitdiff.File
	if len(files) > 0 {
		parsed = files[0]
	} else {
		l.log.Debug().Str("file", df.ModifiedFilename).Msg("patch contained no hunks")
	}
	return difftable.Build(df, parsed, l.opts), nil
}

// ChunkSource fetches replacement rows for chunk expansion from the chunk
// fragment endpoint. It implements the expand controller's row source.
type ChunkSource struct {
	client            *api.Client
	revision          int
	interdiffRevision int
}

var _ difftable.RowSource = (*ChunkSource)(nil)

// NewChunkSource creates a source bound to one revision pair.
func NewChunkSource(client *api.Client, revision, interdiffRevision int) *ChunkSource {
	return &ChunkSource{client: client, revision: revision, interdiffRevision: interdiffRevision}
}

// ChunkRows implements difftable.RowSource.
func (s *ChunkSource) ChunkRows(ctx context.Context, file difftable.DiffFile, chunkIndex, linesOfContext int, all bool) ([]difftable.Row, error) {
	html, err := s.client.GetChunkFragment(ctx, api.ChunkFragmentRequest{
		Revision:          s.revision,
		InterdiffRevision: s.interdiffRevision,
		FileDiffID:        int(file.FileDiffID),
		InterFileDiffID:   int(file.InterFileDiffID),
		ChunkIndex:        chunkIndex,
		LinesOfContext:    linesOfContext,
		WholeFile:         all,
		BaseFileDiffID:    int(file.BaseFileDiffID),
		ShowDeleted:       file.Deleted,
	})
	if err != nil {
		return nil, err
	}

	rows := difftable.ParseRowsHTML(string(html))
	if len(rows) == 0 {
		return nil, fmt.Errorf("chunk %d of %s: empty fragment", chunkIndex, file.ModifiedFilename)
	}
	return rows, nil
}
