package e2e

import "testing"

func TestBuildCorpus(t *testing.T) {
	corpus := BuildCorpus(60)
	if corpus.TotalDocs != 60 {
		t.Fatalf("got %d documents, want 60", corpus.TotalDocs)
	}

	seenNames := make(map[string]bool)
	seenContent := make(map[string]bool)
	for _, d := range corpus.Documents {
		if seenNames[d.Filename] {
			t.Errorf("duplicate filename %q", d.Filename)
		}
		seenNames[d.Filename] = true
		if seenContent[d.Content] {
			t.Errorf("duplicate content for %q", d.Filename)
		}
		seenContent[d.Content] = true
	}
}

func TestBuildCorpus_coversAllExtensions(t *testing.T) {
	corpus := BuildCorpus(len(SupportedFileExtensions) * 2)
	seen := make(map[string]int)
	for _, d := range corpus.Documents {
		for _, ext := range SupportedFileExtensions {
			if len(d.Filename) > len(ext) && d.Filename[len(d.Filename)-len(ext):] == ext {
				seen[ext]++
			}
		}
	}
	for _, ext := range SupportedFileExtensions {
		if seen[ext] == 0 {
			t.Errorf("no corpus document with extension %s", ext)
		}
	}
}
