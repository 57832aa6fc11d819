package artifact

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"cropyield/pkg/nn"
)

const (
	AreaEncoderFile   = "label_encoder_area.json"
	ItemEncoderFile   = "label_encoder_item.json"
	FeatureScalerFile = "scaler_features.json"
	TargetScalerFile  = "scaler_target.json"
	BaseModelFile     = "lstm_yield_model.json"

	// SnapshotTimeFormat sorts lexically in time order.
	SnapshotTimeFormat = "20060102_150405"
	BaseSnapshotID     = "base"

	snapshotPrefix = "lstm_yield_model_"
	snapshotSuffix = ".json"

	// FeatureCount is the width of the encoded row:
	// area_code, item_code, rainfall, pesticides, temp, year.
	FeatureCount = 6
)

// ErrArtifactLoad matches every *LoadError.
var ErrArtifactLoad = errors.New("artifact load failure")

type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load artifact %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

func (e *LoadError) Is(target error) bool { return target == ErrArtifactLoad }

// Snapshot is an immutable model handle. Training never mutates a published
// snapshot; it fits a clone and publishes a new one.
type Snapshot struct {
	ID        string
	Model     nn.Model
	CreatedAt time.Time
}

type SnapshotInfo struct {
	ID      string    `json:"id"`
	File    string    `json:"file"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
	Current bool      `json:"current"`
}

type ModelLoader func(io.Reader) (nn.Model, error)

func LoadLSTMModel(r io.Reader) (nn.Model, error) { return nn.LoadLSTM(r) }

// Store owns the fitted transforms and the current model snapshot.
type Store struct {
	AreaEncoder   *LabelEncoder
	ItemEncoder   *LabelEncoder
	FeatureScaler *Scaler
	TargetScaler  *Scaler

	fs         afero.Fs
	dir        string
	loadModel  ModelLoader
	loadLatest bool
	now        func() time.Time

	commitMu sync.Mutex
	current  atomic.Pointer[Snapshot]
}

type Option func(*Store)

func WithModelLoader(l ModelLoader) Option { return func(s *Store) { s.loadModel = l } }

// WithLatestSnapshot boots from the newest timestamped snapshot when one exists.
func WithLatestSnapshot(on bool) Option { return func(s *Store) { s.loadLatest = on } }

func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

// Open loads every artifact from dir. Any missing or malformed file fails the
// whole open with a *LoadError.
func Open(fs afero.Fs, dir string, opts ...Option) (*Store, error) {
	s := &Store{fs: fs, dir: dir, loadModel: LoadLSTMModel, now: time.Now}
	for _, o := range opts {
		o(s)
	}

	var err error
	if s.AreaEncoder, err = s.readEncoder("area", AreaEncoderFile); err != nil {
		return nil, err
	}
	if s.ItemEncoder, err = s.readEncoder("item", ItemEncoderFile); err != nil {
		return nil, err
	}
	if s.FeatureScaler, err = s.readScaler(FeatureScalerFile, FeatureCount); err != nil {
		return nil, err
	}
	if s.TargetScaler, err = s.readScaler(TargetScalerFile, 1); err != nil {
		return nil, err
	}

	id, file := BaseSnapshotID, BaseModelFile
	if s.loadLatest {
		infos, err := s.Snapshots()
		if err != nil {
			return nil, &LoadError{Path: dir, Err: err}
		}
		if len(infos) > 0 {
			id, file = infos[0].ID, infos[0].File
		}
	}
	m, err := s.readModel(file)
	if err != nil {
		return nil, err
	}
	s.current.Store(&Snapshot{ID: id, Model: m, CreatedAt: s.now()})
	return s, nil
}

func (s *Store) Dir() string { return s.dir }

func (s *Store) path(name string) string { return filepath.Join(s.dir, name) }

func (s *Store) readJSON(name string, v any) error {
	f, err := s.fs.Open(s.path(name))
	if err != nil {
		return &LoadError{Path: s.path(name), Err: err}
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(v); err != nil {
		return &LoadError{Path: s.path(name), Err: err}
	}
	return nil
}

func (s *Store) readEncoder(field, name string) (*LabelEncoder, error) {
	e := &LabelEncoder{Name: field}
	if err := s.readJSON(name, e); err != nil {
		return nil, err
	}
	if err := e.build(); err != nil {
		return nil, &LoadError{Path: s.path(name), Err: err}
	}
	return e, nil
}

func (s *Store) readScaler(name string, width int) (*Scaler, error) {
	sc := &Scaler{}
	if err := s.readJSON(name, sc); err != nil {
		return nil, err
	}
	if err := sc.validate(); err != nil {
		return nil, &LoadError{Path: s.path(name), Err: err}
	}
	if sc.Width() != width {
		return nil, &LoadError{Path: s.path(name), Err: fmt.Errorf("expected %d columns, got %d", width, sc.Width())}
	}
	return sc, nil
}

func (s *Store) readModel(name string) (nn.Model, error) {
	f, err := s.fs.Open(s.path(name))
	if err != nil {
		return nil, &LoadError{Path: s.path(name), Err: err}
	}
	defer f.Close()
	m, err := s.loadModel(f)
	if err != nil {
		return nil, &LoadError{Path: s.path(name), Err: err}
	}
	if w := m.InputWidth(); w != FeatureCount {
		return nil, &LoadError{Path: s.path(name), Err: fmt.Errorf("model expects %d features, want %d", w, FeatureCount)}
	}
	return m, nil
}

// Current returns the snapshot predictions should use. Never nil after Open.
func (s *Store) Current() *Snapshot { return s.current.Load() }

// Commit writes m as a new timestamped snapshot file and then publishes it.
// Existing snapshot files are never overwritten.
func (s *Store) Commit(m nn.Model) (*Snapshot, error) {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	now := s.now()
	stamp := now.Format(SnapshotTimeFormat)
	for k := 0; ; k++ {
		id := stamp
		if k > 0 {
			id = fmt.Sprintf("%s_%03d", stamp, k)
		}
		path := s.path(snapshotPrefix + id + snapshotSuffix)
		f, err := s.fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if os.IsExist(err) {
			continue
		}
		if err != nil {
			return nil, errors.Wrap(err, "create snapshot")
		}
		if err := m.Save(f); err != nil {
			f.Close()
			_ = s.fs.Remove(path)
			return nil, errors.Wrap(err, "write snapshot")
		}
		if err := f.Close(); err != nil {
			_ = s.fs.Remove(path)
			return nil, errors.Wrap(err, "close snapshot")
		}
		snap := &Snapshot{ID: id, Model: m, CreatedAt: now}
		s.current.Store(snap)
		return snap, nil
	}
}

// Snapshots lists persisted timestamped snapshots, newest first.
func (s *Store) Snapshots() ([]SnapshotInfo, error) {
	entries, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		return nil, err
	}
	cur := ""
	if c := s.Current(); c != nil {
		cur = c.ID
	}
	var out []SnapshotInfo
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, snapshotPrefix) || !strings.HasSuffix(name, snapshotSuffix) {
			continue
		}
		id := strings.TrimSuffix(strings.TrimPrefix(name, snapshotPrefix), snapshotSuffix)
		if _, err := time.Parse(SnapshotTimeFormat, id[:min(len(id), len(SnapshotTimeFormat))]); err != nil {
			continue
		}
		out = append(out, SnapshotInfo{ID: id, File: name, Size: e.Size(), ModTime: e.ModTime(), Current: id == cur})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}
