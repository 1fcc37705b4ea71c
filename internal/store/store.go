// Package store persists the shared task list as a single JSON file.
//
// The file is the only resource shared between sessions, so every write
// must be atomic from a concurrent reader's point of view: content is
// staged in a temp file in the same directory and renamed over the target.
package store

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bborn/tydo/internal/task"
)

// Store reads and writes one task list file.
type Store struct {
	path string
}

// New creates a store for the given file path.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the file path backing the store.
func (s *Store) Path() string {
	return s.path
}

// record is the wire form of a task: required id and task text, optional
// done, plus whatever fields other versions of the tool have written.
type record struct {
	ID    string
	Text  string
	Done  bool
	Extra map[string]json.RawMessage
}

func (r *record) UnmarshalJSON(data []byte) error {
	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if raw, ok := fields["id"]; ok {
		if err := json.Unmarshal(raw, &r.ID); err != nil {
			return err
		}
		delete(fields, "id")
	}
	if raw, ok := fields["task"]; ok {
		if err := json.Unmarshal(raw, &r.Text); err != nil {
			return err
		}
		delete(fields, "task")
	}
	if raw, ok := fields["done"]; ok {
		if err := json.Unmarshal(raw, &r.Done); err != nil {
			return err
		}
		delete(fields, "done")
	}
	if len(fields) > 0 {
		r.Extra = fields
	}
	return nil
}

func (r record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	write := func(key string, value any) error {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return err
		}
		v, err := json.Marshal(value)
		if err != nil {
			return err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
		return nil
	}

	if err := write("id", r.ID); err != nil {
		return nil, err
	}
	if err := write("task", r.Text); err != nil {
		return nil, err
	}
	if err := write("done", r.Done); err != nil {
		return nil, err
	}
	for _, key := range sortedKeys(r.Extra) {
		if err := write(key, r.Extra[key]); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func sortedKeys(m map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j] < keys[j-1]; j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}
	return keys
}

// Read loads the task list. A missing or empty file yields an empty list.
// Records missing their id or task text are skipped individually; a file
// that does not parse as a JSON array at all is reported as an error so the
// caller can retry on the next tick.
func (s *Store) Read() (task.List, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}

	var list task.List
	for _, item := range raw {
		var rec record
		if err := json.Unmarshal(item, &rec); err != nil {
			continue
		}
		if rec.ID == "" || rec.Text == "" {
			continue
		}
		list = append(list, task.Task{
			ID:    rec.ID,
			Text:  rec.Text,
			Done:  rec.Done,
			Extra: rec.Extra,
		})
	}
	return list, nil
}

// Write atomically replaces the file with the given list. Empty-text tasks
// are never persisted.
func (s *Store) Write(tasks task.List) error {
	records := make([]record, 0, len(tasks))
	for _, t := range tasks {
		if t.ID == "" || t.Text == "" {
			continue
		}
		records = append(records, record{ID: t.ID, Text: t.Text, Done: t.Done, Extra: t.Extra})
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode tasks: %w", err)
	}
	data = append(data, '\n')

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create list directory: %w", err)
		}
	}
	return atomicWrite(s.path, data)
}

// ModTime returns the file's modification time, or the zero time when the
// file does not exist. Used as a cheap probe before rereading.
func (s *Store) ModTime() time.Time {
	info, err := os.Stat(s.path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}

// atomicWrite stages data in a uniquely named temp file next to the target,
// syncs it, and renames it into place. Concurrent readers observe either
// the old content or the new content, never a mix.
func atomicWrite(path string, data []byte) error {
	suffix := make([]byte, 8)
	if _, err := rand.Read(suffix); err != nil {
		return fmt.Errorf("temp suffix: %w", err)
	}
	tmp := path + ".tmp." + hex.EncodeToString(suffix)

	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
