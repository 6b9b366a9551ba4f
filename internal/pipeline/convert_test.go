package pipeline

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/tayebekavousi/toothlabel/internal/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// buildDataset lays out a dataset root with a Training split, a TSV metadata
// source and the given annotation documents.
func buildDataset(t *testing.T, metadataRows string, annotations map[string]string) string {
	t.Helper()
	root := t.TempDir()

	tsv := "ID\tAge\tSex\tFDI\n" + metadataRows
	if err := os.WriteFile(filepath.Join(root, "characteristics_of_distributions.txt"), []byte(tsv), 0o644); err != nil {
		t.Fatal(err)
	}

	annoDir := filepath.Join(root, "Training", annotationsDirName)
	if err := os.MkdirAll(annoDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(root, "Training", imagesDirName), 0o755); err != nil {
		t.Fatal(err)
	}
	for name, content := range annotations {
		if err := os.WriteFile(filepath.Join(annoDir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func runConfig(root string) config.Config {
	return config.Config{
		DatasetRoot:  root,
		LabelDirName: "Tooth_Labels",
		Mode:         config.ModeBoth,
		Decimals:     6,
	}
}

func labelPath(root, id string) string {
	return filepath.Join(root, "Training", "Tooth_Labels", id+".txt")
}

func TestRunBothModes(t *testing.T) {
	root := buildDataset(t,
		"001\t30\tF\t11; 12\n",
		map[string]string{
			"1.json": `{"width":100,"height":100,"data":[[0,0,10,10],[10,10,20,20]]}`,
		})

	results, err := Run(runConfig(root), discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || results[0].Written != 1 {
		t.Fatalf("expected 1 written image, got %+v", results)
	}

	got, err := os.ReadFile(labelPath(root, "1"))
	if err != nil {
		t.Fatalf("label file missing: %v", err)
	}
	want := "11 0 0 10 10\n" +
		"12 10 10 20 20\n" +
		"11 0.050000 0.050000 0.100000 0.100000\n" +
		"12 0.150000 0.150000 0.100000 0.100000\n"
	if string(got) != want {
		t.Errorf("label file mismatch:\n got %q\nwant %q", string(got), want)
	}
}

func TestRunEmptyTokenListSkipsImage(t *testing.T) {
	root := buildDataset(t,
		"002\t30\tF\t\n",
		map[string]string{
			"2.json": `{"width":100,"height":100,"data":[[0,0,10,10]]}`,
		})

	results, err := Run(runConfig(root), discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0].MetadataMissing != 1 || results[0].Written != 0 {
		t.Fatalf("expected metadata-missing skip, got %+v", results[0])
	}
	if _, err := os.Stat(labelPath(root, "2")); !os.IsNotExist(err) {
		t.Error("expected no label file for skipped image")
	}
}

func TestRunCountMismatchSkipsImageOthersSucceed(t *testing.T) {
	root := buildDataset(t,
		"003\t30\tF\t21\n004\t31\tM\t31\n",
		map[string]string{
			"3.json": `{"width":100,"height":100,"data":[[0,0,10,10],[10,10,20,20]]}`,
			"4.json": `{"width":100,"height":100,"data":[[5,5,15,15]]}`,
		})

	results, err := Run(runConfig(root), discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0].CountMismatch != 1 || results[0].Written != 1 {
		t.Fatalf("expected 1 mismatch and 1 written, got %+v", results[0])
	}
	if _, err := os.Stat(labelPath(root, "3")); !os.IsNotExist(err) {
		t.Error("expected no label file for mismatched image")
	}
	if _, err := os.Stat(labelPath(root, "4")); err != nil {
		t.Errorf("expected label file for valid image: %v", err)
	}
}

func TestRunSizeUnresolvableSkipsAtomically(t *testing.T) {
	// mode=both with no size source anywhere: no partial raw-only file.
	root := buildDataset(t,
		"005\t30\tF\t11\n",
		map[string]string{
			"5.json": `{"data":[[0,0,10,10]]}`,
		})

	results, err := Run(runConfig(root), discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0].SizeUnresolved != 1 {
		t.Fatalf("expected size-unresolved skip, got %+v", results[0])
	}
	if _, err := os.Stat(labelPath(root, "5")); !os.IsNotExist(err) {
		t.Error("expected no partial label file when size is unresolvable")
	}
}

func TestRunDegenerateSizeSkips(t *testing.T) {
	root := buildDataset(t,
		"006\t30\tF\t11\n",
		map[string]string{
			"6.json": `{"width":0,"height":100,"data":[[0,0,10,10]]}`,
		})

	results, err := Run(runConfig(root), discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0].SizeUnresolved != 1 {
		t.Fatalf("expected degenerate-size skip, got %+v", results[0])
	}
}

func TestRunRawModeNeedsNoSize(t *testing.T) {
	root := buildDataset(t,
		"007\t30\tF\t11\n",
		map[string]string{
			"7.json": `{"data":[[1.9,2.2,10.7,20.1]]}`,
		})

	cfg := runConfig(root)
	cfg.Mode = config.ModeRaw
	results, err := Run(cfg, discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0].Written != 1 {
		t.Fatalf("expected 1 written, got %+v", results[0])
	}

	got, _ := os.ReadFile(labelPath(root, "7"))
	if string(got) != "11 1 2 10 20\n" {
		t.Errorf("expected truncated raw line, got %q", string(got))
	}
}

func TestRunRemapWritesClassMapAndIndices(t *testing.T) {
	root := buildDataset(t,
		"008\t30\tF\t11 21\n009\t31\tM\t2\n",
		map[string]string{
			"8.json": `{"width":100,"height":100,"data":[[0,0,10,10],[10,10,20,20]]}`,
		})

	cfg := runConfig(root)
	cfg.Mode = config.ModeYOLO
	cfg.RemapClasses = true
	results, err := Run(cfg, discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0].Written != 1 {
		t.Fatalf("expected 1 written, got %+v", results[0])
	}

	classes, err := os.ReadFile(filepath.Join(root, "classes.txt"))
	if err != nil {
		t.Fatalf("classes.txt missing: %v", err)
	}
	if string(classes) != "2\n11\n21\n" {
		t.Errorf("expected classes %q, got %q", "2\n11\n21\n", string(classes))
	}

	got, _ := os.ReadFile(labelPath(root, "8"))
	want := "1 0.050000 0.050000 0.100000 0.100000\n" +
		"2 0.150000 0.150000 0.100000 0.100000\n"
	if string(got) != want {
		t.Errorf("remapped labels mismatch:\n got %q\nwant %q", string(got), want)
	}
}

func TestRunMalformedAnnotationSkips(t *testing.T) {
	root := buildDataset(t,
		"010\t30\tF\t11\n",
		map[string]string{
			"10.json": `{broken`,
		})

	results, err := Run(runConfig(root), discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0].ParseFailed != 1 {
		t.Fatalf("expected parse-failed skip, got %+v", results[0])
	}
}

func TestRunNoBoxesSkips(t *testing.T) {
	root := buildDataset(t,
		"011\t30\tF\t11\n",
		map[string]string{
			"11.json": `{"notes":"nothing here"}`,
		})

	results, err := Run(runConfig(root), discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0].ExtractionFailed != 1 {
		t.Fatalf("expected extraction-failed skip, got %+v", results[0])
	}
}

func TestRunMissingMetadataSourceFatal(t *testing.T) {
	if _, err := Run(runConfig(t.TempDir()), discardLogger()); err == nil {
		t.Fatal("expected fatal error when metadata source is missing")
	}
}

func TestRunOverwritesPriorLabelFile(t *testing.T) {
	root := buildDataset(t,
		"012\t30\tF\t11\n",
		map[string]string{
			"12.json": `{"width":100,"height":100,"data":[[0,0,10,10]]}`,
		})

	outDir := filepath.Join(root, "Training", "Tooth_Labels")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(outDir, "12.txt"), []byte("stale content\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Run(runConfig(root), discardLogger()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, _ := os.ReadFile(filepath.Join(outDir, "12.txt"))
	want := "11 0 0 10 10\n11 0.050000 0.050000 0.100000 0.100000\n"
	if string(got) != want {
		t.Errorf("expected overwrite, got %q", string(got))
	}
}
