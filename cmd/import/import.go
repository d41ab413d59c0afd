package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/debemdeboas/spawnwrite/internal/model"
	"github.com/debemdeboas/spawnwrite/internal/render"
	"github.com/debemdeboas/spawnwrite/internal/repository"
	"github.com/debemdeboas/spawnwrite/internal/util"
)

// importer turns a directory of markdown files into posts of one owner.
type importer struct {
	posts    repository.PostRepository
	renderer *render.Renderer
	owner    model.UserID
	log      zerolog.Logger
}

type importResult struct {
	Imported int
	Failed   []string
}

func (im *importer) importDir(ctx context.Context, dir string) (importResult, error) {
	var res importResult

	files, err := os.ReadDir(dir)
	if err != nil {
		return res, err
	}

	for _, file := range files {
		if file.IsDir() || !strings.EqualFold(filepath.Ext(file.Name()), ".md") {
			continue
		}
		post, err := im.importFile(ctx, dir, file)
		if err != nil {
			im.log.Error().Err(err).Str("file", file.Name()).Msg("Error importing file")
			res.Failed = append(res.Failed, file.Name())
			continue
		}
		im.log.Info().Str("file", file.Name()).Str("post_id", string(post.ID)).Msg("Imported post")
		res.Imported++
	}
	return res, nil
}

func (im *importer) importFile(ctx context.Context, dir string, file os.DirEntry) (*model.Post, error) {
	content, err := os.ReadFile(filepath.Join(dir, file.Name()))
	if err != nil {
		return nil, err
	}
	info, err := file.Info()
	if err != nil {
		return nil, err
	}

	fm, body, err := util.SplitFrontMatter(content)
	if errors.Is(err, util.ErrInvalidFrontMatter) {
		fm, body = &util.FrontMatter{}, content
	} else if err != nil {
		return nil, err
	}

	out := im.renderer.Render(body)

	post := &model.Post{
		Owner:     im.owner,
		Title:     strings.TrimSuffix(file.Name(), filepath.Ext(file.Name())),
		Content:   string(out.HTML),
		Published: fm.Published,
		CreatedAt: info.ModTime().UTC(),
	}
	switch {
	case fm.Title != "":
		post.Title = fm.Title
	case out.Title != "":
		post.Title = out.Title
	}
	if !fm.Date.IsZero() {
		post.CreatedAt = fm.Date.UTC()
	}

	if err := im.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}
