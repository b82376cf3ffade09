package program

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/irdiff/internal/ir"
)

// Load compiles path, which may be a single .cue file or a directory whose
// .cue files form one CUE package.
func Load(path string) (*Package, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read program: %w", err)
	}
	if info.IsDir() {
		return CompileDir(path)
	}
	return CompileFile(path)
}

// CompileDir loads every .cue file in dir as one CUE instance and compiles
// the result. The digest covers the files' contents in name order.
func CompileDir(dir string) (*Package, error) {
	files, err := FindCUEFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("error scanning directory: %w", err)
	}
	if len(files) == 0 {
		return nil, &CompileError{Field: "load", Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}

	var all bytes.Buffer
	for _, f := range files {
		src, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read program: %w", err)
		}
		all.Write(src)
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, &CompileError{Field: "load", Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, formatCUEError(inst.Err)
	}

	v := cuecontext.New().BuildInstance(inst)
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return compileValue(v, ir.ProgramDigest(all.Bytes()))
}

// FindCUEFiles returns the .cue files directly inside dir, sorted.
func FindCUEFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".cue" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
