package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dgallion1/txt2epub/internal/convert"
	"github.com/dgallion1/txt2epub/internal/parser"
	"github.com/dgallion1/txt2epub/internal/pipeline"
)

// imageDirSuffix names the image folder that belongs to <stem>.txt.
const imageDirSuffix = "_images"

// discover lists convertible files in dir, sorted by name. Only .txt files
// are picked up unless allSources is set.
func discover(dir string, allSources bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if ext == ".txt" || (allSources && parser.IsSupportedExtension(name)) {
			files = append(files, filepath.Join(dir, name))
		}
	}
	sort.Strings(files)
	return files, nil
}

// requestFor derives the image folder and output path of a source file.
// The image folder is only set when it exists.
func requestFor(src, outDir string) convert.Request {
	stem := strings.TrimSuffix(src, filepath.Ext(src))
	out := stem + ".epub"
	if outDir != "" {
		out = filepath.Join(outDir, filepath.Base(out))
	}
	req := convert.Request{Source: src, Output: out}
	if info, err := os.Stat(stem + imageDirSuffix); err == nil && info.IsDir() {
		req.ImageDir = stem + imageDirSuffix
	}
	return req
}

// requestsFor builds the requests of a batch. Sources sharing a stem would
// write the same archive, so only the .txt (or else the first file) keeps
// <stem>.epub and the others are named <stem>_<ext>.epub.
func requestsFor(files []string, outDir string) []convert.Request {
	groups := make(map[string][]int)
	for i, f := range files {
		key := strings.ToLower(strings.TrimSuffix(f, filepath.Ext(f)))
		groups[key] = append(groups[key], i)
	}

	reqs := make([]convert.Request, len(files))
	for i, f := range files {
		reqs[i] = requestFor(f, outDir)
	}
	for _, idx := range groups {
		if len(idx) < 2 {
			continue
		}
		keep := idx[0]
		for _, i := range idx {
			if strings.EqualFold(filepath.Ext(files[i]), ".txt") {
				keep = i
				break
			}
		}
		for _, i := range idx {
			if i == keep {
				continue
			}
			ext := strings.TrimPrefix(filepath.Ext(files[i]), ".")
			reqs[i].Output = strings.TrimSuffix(reqs[i].Output, ".epub") + "_" + ext + ".epub"
		}
	}
	return reqs
}

// runBatch submits every file, waits for all of them and reports each
// outcome to w. It returns the number of failed files.
func runBatch(ctx context.Context, orch *pipeline.Orchestrator, files []string, outDir string, w io.Writer) (int, error) {
	jobs := make([]*pipeline.Job, 0, len(files))
	for _, req := range requestsFor(files, outDir) {
		job := pipeline.NewJob(req)
		if err := orch.Submit(job); err != nil {
			return 0, fmt.Errorf("submit %s: %w", req.Source, err)
		}
		jobs = append(jobs, job)
	}

	failed := 0
	for _, job := range jobs {
		out, err := job.Wait(ctx)
		if err != nil {
			return failed, err
		}
		report(w, out)
		if !out.OK() {
			failed++
		}
	}
	return failed, nil
}

func report(w io.Writer, out pipeline.Outcome) {
	if !out.OK() {
		fmt.Fprintf(w, "FAIL %s [%s]: %v\n", out.Source, out.Kind, out.Err)
		return
	}
	r := out.Result
	cover := ""
	if r.Cover {
		cover = ", cover"
	}
	fmt.Fprintf(w, "OK   %s -> %s (%d chapters, %d images%s)\n", out.Source, r.Output, r.Chapters, r.Images, cover)
}
