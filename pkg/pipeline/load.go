package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/baselineplan/pkg/cache"
	"github.com/matzehuels/baselineplan/pkg/compat"
	"github.com/matzehuels/baselineplan/pkg/errors"
)

// Dataset is a decoded compat dataset.
type Dataset struct {
	Root *compat.Node
	Hash string // SHA-256 of the raw bytes
	Size int    // Raw size in bytes
}

// Load reads and decodes the dataset named by opts.Dataset.
//
// Load fails with FILE_NOT_FOUND when the file does not exist, INVALID_FORMAT
// when it is not a JSON object, and INVALID_INPUT when it has no categories.
func Load(ctx context.Context, opts Options) (*Dataset, error) {
	if err := opts.ValidateForLoad(); err != nil {
		return nil, err
	}

	data, err := readDataset(opts)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	root, err := compat.DecodeBytes(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode dataset %s", opts.Dataset)
	}
	if root.Len() == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "dataset %s has no categories", opts.Dataset)
	}

	return &Dataset{
		Root: root,
		Hash: cache.Hash(data),
		Size: len(data),
	}, nil
}

func readDataset(opts Options) ([]byte, error) {
	if opts.Dataset == "-" {
		data, err := io.ReadAll(opts.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}

	data, err := os.ReadFile(opts.Dataset)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "dataset not found: %s", opts.Dataset)
	}
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	return data, nil
}
