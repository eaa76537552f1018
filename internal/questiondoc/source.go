package questiondoc

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"quiz-bot/internal/logger"
	"quiz-bot/internal/quiz"
)

//go:embed catalog/*.json
var catalogFS embed.FS

// FSSource serves every supported document at the top of a file system as
// one topic, named by the file stem. The directory is read on every call so
// documents can be added while the process runs.
type FSSource struct {
	fsys fs.FS
	log  *logger.Logger
}

func NewFSSource(fsys fs.FS, log *logger.Logger) *FSSource {
	if log == nil {
		log = logger.Nop()
	}
	return &FSSource{fsys: fsys, log: log.With("component", "QuestionDocs")}
}

// EmbeddedCatalog is the built-in GATE CSE bank.
func EmbeddedCatalog(log *logger.Logger) *FSSource {
	sub, err := fs.Sub(catalogFS, "catalog")
	if err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	return NewFSSource(sub, log)
}

// DirSource discovers documents under dir. A missing dir is an empty source.
func DirSource(dir string, log *logger.Logger) *FSSource {
	return NewFSSource(os.DirFS(dir), log)
}

func (s *FSSource) Topics(_ context.Context) ([]quiz.Topic, error) {
	files, err := s.files()
	if err != nil {
		return nil, err
	}
	topics := make([]quiz.Topic, 0, len(files))
	for _, id := range sortedKeys(files) {
		topic := quiz.Topic{ID: id}
		if doc, err := s.decode(files[id], id); err == nil {
			topic.Title = doc.Title
		}
		topics = append(topics, topic)
	}
	return topics, nil
}

func (s *FSSource) Load(_ context.Context, topic string) ([]quiz.Question, error) {
	files, err := s.files()
	if err != nil {
		return nil, err
	}
	name, ok := files[topic]
	if !ok {
		return nil, nil
	}
	doc, err := s.decode(name, topic)
	if err != nil {
		return nil, err
	}
	return doc.Questions, nil
}

// ReadDocument decodes a single named file within the source.
func (s *FSSource) ReadDocument(name string) (Document, error) {
	return s.decode(name, strings.TrimSuffix(name, path.Ext(name)))
}

// Documents lists the file names this source would serve, keyed by topic.
func (s *FSSource) Documents() (map[string]string, error) {
	return s.files()
}

func (s *FSSource) decode(name, topic string) (Document, error) {
	format, err := FormatFromPath(name)
	if err != nil {
		return Document{}, err
	}
	data, err := fs.ReadFile(s.fsys, name)
	if err != nil {
		return Document{}, fmt.Errorf("read %s: %w", name, err)
	}
	doc, err := Decode(format, data, topic)
	if err != nil {
		return Document{}, fmt.Errorf("%s: %w", name, err)
	}
	if len(doc.Rejected) > 0 {
		s.log.Warn("invalid questions skipped",
			"file", name,
			"rejected", len(doc.Rejected),
			"error", doc.Rejected.Error(),
		)
	}
	return doc, nil
}

// files maps topic id to file name. When two files share a stem the first
// in lexical order wins.
func (s *FSSource) files() (map[string]string, error) {
	entries, err := fs.ReadDir(s.fsys, ".")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("list question documents: %w", err)
	}
	out := make(map[string]string, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if _, err := FormatFromPath(entry.Name()); err != nil {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), path.Ext(entry.Name()))
		if _, dup := out[id]; !dup {
			out[id] = entry.Name()
		}
	}
	return out, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
