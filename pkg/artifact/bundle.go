package artifact

import (
	"encoding/json"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"cropyield/pkg/nn"
)

// Bundle is a full artifact set as written by the bootstrap command.
type Bundle struct {
	AreaEncoder   *LabelEncoder
	ItemEncoder   *LabelEncoder
	FeatureScaler *Scaler
	TargetScaler  *Scaler
	Model         nn.Model
}

// WriteBundle writes the five base artifacts into dir, replacing existing
// base files. Timestamped snapshots are left alone.
func WriteBundle(fs afero.Fs, dir string, b Bundle) error {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "create artifact dir")
	}
	for name, v := range map[string]any{
		AreaEncoderFile:   b.AreaEncoder,
		ItemEncoderFile:   b.ItemEncoder,
		FeatureScalerFile: b.FeatureScaler,
		TargetScalerFile:  b.TargetScaler,
	} {
		raw, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return errors.Wrapf(err, "encode %s", name)
		}
		if err := afero.WriteFile(fs, filepath.Join(dir, name), raw, 0o644); err != nil {
			return errors.Wrapf(err, "write %s", name)
		}
	}
	f, err := fs.Create(filepath.Join(dir, BaseModelFile))
	if err != nil {
		return errors.Wrap(err, "create model file")
	}
	if err := b.Model.Save(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
