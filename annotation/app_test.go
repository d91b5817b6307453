package annotation

import (
	"context"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v6"
	"github.com/go-git/go-billy/v6/memfs"
	"github.com/lewtec/demarcador/internal/detector"
	"github.com/lewtec/demarcador/internal/domain"
	"github.com/lewtec/demarcador/internal/repository"
)

func writePNG(t *testing.T, fs billy.Filesystem, name string, w, h int) {
	t.Helper()
	f, err := fs.Create(name)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	f.Close()
}

func TestProject_StoreFormats(t *testing.T) {
	for _, format := range []string{FormatLines, FormatJSON} {
		t.Run(format, func(t *testing.T) {
			fs := memfs.New()
			writePNG(t, fs, "a.png", 256, 128)
			config := DefaultConfig()
			config.Storage.Format = format
			p := NewProject("", fs, config)
			images := []string{"a.png"}

			store := domain.NewStore()
			store.Commit("a.png", []domain.Annotation{
				{ClassName: "cat", BBox: domain.BBox{X1: 64, Y1: 32, X2: 192, Y2: 96}, Visible: true, Color: "#ff4444"},
			})
			if err := p.SaveStore(store, images); err != nil {
				t.Fatalf("SaveStore() error = %v", err)
			}

			loaded, err := p.LoadStore(images)
			if err != nil {
				t.Fatalf("LoadStore() error = %v", err)
			}
			list, ok := loaded.Get("a.png")
			if !ok || len(list) != 1 {
				t.Fatalf("Get() = %v, %v", list, ok)
			}
			if list[0].ClassName != "cat" || list[0].BBox != (domain.BBox{X1: 64, Y1: 32, X2: 192, Y2: 96}) {
				t.Errorf("loaded annotation = %+v", list[0])
			}
		})
	}

	p := NewProject("", memfs.New(), nil)
	if err := p.Export(domain.NewStore(), "csv", nil); err == nil {
		t.Errorf("Export() with an unknown format expected an error")
	}
}

func TestProject_SessionOptions(t *testing.T) {
	config := DefaultConfig()
	config.Editor.PasteOffset = 7
	config.Palette = []string{"#000000"}
	p := NewProject("", memfs.New(), config)

	opts := p.SessionOptions()
	if opts.PasteOffset != 7 || opts.MinSize != 10 || opts.HandleTolerance != 8 {
		t.Errorf("SessionOptions() = %+v", opts)
	}

	s := p.NewSession(domain.NewStore())
	if err := p.OpenImage(s, []string{"a.png"}, 0); err != nil {
		t.Fatalf("OpenImage() error = %v", err)
	}
	if w, h := s.Dimensions(); w != 640 || h != 480 {
		t.Errorf("Dimensions() = %dx%d, want the 640x480 fallback", w, h)
	}
	if err := p.OpenImage(s, []string{"a.png"}, 3); err == nil {
		t.Errorf("OpenImage() out of range expected an error")
	}
}

func TestProject_Predict(t *testing.T) {
	config := DefaultConfig()
	config.Detector.AutoApproveThreshold = 0.8
	p := NewProject("", memfs.New(), config)

	store := domain.NewStore()
	store.Commit("done.png", []domain.Annotation{
		{ClassName: "dog", BBox: domain.BBox{X1: 0, Y1: 0, X2: 50, Y2: 50}, Visible: true},
	})
	images := []string{"a.png", "b.png", "done.png"}

	result := p.Predict(context.Background(), detector.Placeholder{}, store, images, PredictOptions{SkipAnnotated: true, Jobs: 2})
	if result.Images != 2 || result.Approved != 2 || result.Discarded != 2 || result.Failed != 0 {
		t.Errorf("Predict() = %+v", result)
	}
	for _, imageID := range []string{"a.png", "b.png"} {
		list, ok := store.Get(imageID)
		if !ok || len(list) != 1 {
			t.Fatalf("Get(%s) = %v, %v", imageID, list, ok)
		}
		if list[0].ClassName != "person" || list[0].Provenance != nil || list[0].Color == "" {
			t.Errorf("approved annotation = %+v", list[0])
		}
	}
	if list, _ := store.Get("done.png"); len(list) != 1 || list[0].ClassName != "dog" {
		t.Errorf("annotated image was modified: %+v", list)
	}
}

func TestProject_Index(t *testing.T) {
	ctx := context.Background()
	db := repository.SetupTestDB(t)
	defer repository.CleanupTestDB(t, db)

	fs := memfs.New()
	writePNG(t, fs, "a.png", 30, 20)
	f, _ := fs.Create("broken.png")
	f.Close()
	p := NewProject("", fs, nil)

	count, err := p.Index(ctx, db, []string{"a.png", "broken.png"})
	if err != nil {
		t.Fatalf("Index() error = %v", err)
	}
	if count != 1 {
		t.Errorf("Index() = %d, want 1", count)
	}

	repo := repository.NewImageRepository(db)
	img, err := repo.GetByPath(ctx, "a.png")
	if err != nil || img == nil {
		t.Fatalf("GetByPath() = %v, %v", img, err)
	}
	if img.Width != 30 || img.Height != 20 || len(img.SHA256) != 64 {
		t.Errorf("indexed image = %+v", img)
	}

	if err := p.Unindex(ctx, db, "a.png"); err != nil {
		t.Fatalf("Unindex() error = %v", err)
	}
	if img, _ := repo.GetByPath(ctx, "a.png"); img != nil {
		t.Errorf("image still indexed after Unindex()")
	}
	if err := p.Unindex(ctx, db, "never.png"); err != nil {
		t.Errorf("Unindex() of an unknown image error = %v", err)
	}
}

func TestOpenProject(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ConfigFile), []byte("classes: [bird]\n"), 0644); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"b.png", "a.jpg", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}

	p, err := OpenProject(dir)
	if err != nil {
		t.Fatalf("OpenProject() error = %v", err)
	}
	if p.Config.DefaultClass() != "bird" {
		t.Errorf("DefaultClass() = %q", p.Config.DefaultClass())
	}
	images, err := p.Images()
	if err != nil {
		t.Fatalf("Images() error = %v", err)
	}
	if strings.Join(images, ",") != "a.jpg,b.png" {
		t.Errorf("Images() = %v", images)
	}
	if p.DatabasePath() != filepath.Join(dir, "annotations.db") {
		t.Errorf("DatabasePath() = %s", p.DatabasePath())
	}

	if _, err := OpenProject(filepath.Join(dir, "missing")); err == nil {
		t.Errorf("OpenProject() on a missing folder expected an error")
	}
}

func TestProject_HTTPHandler(t *testing.T) {
	dir := t.TempDir()
	f, err := os.Create(filepath.Join(dir, "a.png"))
	if err != nil {
		t.Fatal(err)
	}
	png.Encode(f, image.NewRGBA(image.Rect(0, 0, 4, 4)))
	f.Close()

	p, err := OpenProject(dir)
	if err != nil {
		t.Fatalf("OpenProject() error = %v", err)
	}
	handler := p.GetHTTPHandler()

	t.Run("report", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("GET / status = %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Annotation report") {
			t.Errorf("GET / body = %s", rec.Body.String())
		}
	})

	t.Run("image", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/image/a.png", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("GET /image/a.png status = %d", rec.Code)
		}
		if rec.Header().Get("Content-Type") != "image/png" {
			t.Errorf("Content-Type = %q", rec.Header().Get("Content-Type"))
		}
	})

	for _, target := range []string{"/image/missing.png", "/image/config.yaml", "/elsewhere"} {
		t.Run(target, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
			if rec.Code != http.StatusNotFound {
				t.Errorf("GET %s status = %d, want 404", target, rec.Code)
			}
		})
	}
}
