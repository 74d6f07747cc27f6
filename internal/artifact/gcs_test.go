package artifact_test

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"google.golang.org/api/option"

	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/artifact"
)

const testBucket = "tax-docs"

type storedObject struct {
	contentType string
	data        []byte
}

// fakeGCS serves the JSON API calls GCSStore makes: multipart uploads and
// object deletes.
type fakeGCS struct {
	mu        sync.Mutex
	objects   map[string]storedObject
	denyPuts  bool
	deletions int
}

func (f *fakeGCS) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case r.Method == http.MethodPost && strings.HasPrefix(r.URL.Path, "/upload/storage/v1/b/"+testBucket+"/o"):
		if f.denyPuts {
			writeGCSError(w, http.StatusForbidden, "access denied")
			return
		}
		name, obj, err := readMultipartUpload(r)
		if err != nil {
			writeGCSError(w, http.StatusBadRequest, err.Error())
			return
		}
		f.objects[name] = obj
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"bucket":      testBucket,
			"name":        name,
			"contentType": obj.contentType,
			"size":        strconv.Itoa(len(obj.data)),
		})

	case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/storage/v1/b/"+testBucket+"/o/"):
		name := strings.TrimPrefix(r.URL.Path, "/storage/v1/b/"+testBucket+"/o/")
		if _, ok := f.objects[name]; !ok {
			writeGCSError(w, http.StatusNotFound, "No such object: "+testBucket+"/"+name)
			return
		}
		delete(f.objects, name)
		f.deletions++
		w.WriteHeader(http.StatusNoContent)

	default:
		writeGCSError(w, http.StatusNotImplemented, r.Method+" "+r.URL.Path)
	}
}

func (f *fakeGCS) object(name string) (storedObject, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.objects[name]
	return o, ok
}

func (f *fakeGCS) denyUploads() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.denyPuts = true
}

func (f *fakeGCS) deleted() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deletions
}

func readMultipartUpload(r *http.Request) (string, storedObject, error) {
	_, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return "", storedObject{}, err
	}
	mr := multipart.NewReader(r.Body, params["boundary"])

	metaPart, err := mr.NextPart()
	if err != nil {
		return "", storedObject{}, err
	}
	var meta struct {
		Name        string `json:"name"`
		ContentType string `json:"contentType"`
	}
	if err := json.NewDecoder(metaPart).Decode(&meta); err != nil {
		return "", storedObject{}, err
	}

	mediaPart, err := mr.NextPart()
	if err != nil {
		return "", storedObject{}, err
	}
	data, err := io.ReadAll(mediaPart)
	if err != nil {
		return "", storedObject{}, err
	}
	return meta.Name, storedObject{contentType: meta.ContentType, data: data}, nil
}

func writeGCSError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"code": code, "message": msg},
	})
}

func newGCSStore(t *testing.T, prefix string) (*artifact.GCSStore, *fakeGCS) {
	t.Helper()

	fake := &fakeGCS{objects: make(map[string]storedObject)}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	store, err := artifact.NewGCSStore(context.Background(), testBucket, prefix, "",
		option.WithEndpoint(srv.URL+"/storage/v1/"),
		option.WithoutAuthentication(),
	)
	if err != nil {
		t.Fatalf("NewGCSStore() returned unexpected error: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store, fake
}

// TestGCSStore tests the cloud storage backend against a fake JSON API.
//
// WHY: Regeneration releases the old document before storing the new one. A
// release of an already missing object must succeed so a retried report is
// never stuck on its own earlier cleanup.
func TestGCSStore(t *testing.T) {
	ctx := context.Background()
	pdf := []byte("%PDF-1.4 liability")

	t.Run("put uploads under the prefix and returns the public url", func(t *testing.T) {
		store, fake := newGCSStore(t, "/liabilities/")

		locator, err := store.Put(ctx, "u1/2024-02-EQUITY-1.pdf", "application/pdf", pdf)
		if err != nil {
			t.Fatalf("Put() returned unexpected error: %v", err)
		}

		want := "https://storage.googleapis.com/tax-docs/liabilities/u1/2024-02-EQUITY-1.pdf"
		if locator != want {
			t.Errorf("Expected locator %s, got %s", want, locator)
		}
		obj, ok := fake.object("liabilities/u1/2024-02-EQUITY-1.pdf")
		if !ok {
			t.Fatal("Expected object to be uploaded")
		}
		if string(obj.data) != string(pdf) {
			t.Errorf("Expected uploaded bytes %q, got %q", pdf, obj.data)
		}
		if obj.contentType != "application/pdf" {
			t.Errorf("Expected content type application/pdf, got %s", obj.contentType)
		}
	})

	t.Run("release deletes the object and tolerates a missing one", func(t *testing.T) {
		store, fake := newGCSStore(t, "")

		locator, err := store.Put(ctx, "u1/doc.pdf", "application/pdf", pdf)
		if err != nil {
			t.Fatalf("Put() returned unexpected error: %v", err)
		}

		if err := store.Release(ctx, locator); err != nil {
			t.Fatalf("Release() returned unexpected error: %v", err)
		}
		if _, ok := fake.object("u1/doc.pdf"); ok {
			t.Error("Expected object to be deleted")
		}
		if err := store.Release(ctx, locator); err != nil {
			t.Errorf("Expected releasing a missing object to succeed, got %v", err)
		}
		if n := fake.deleted(); n != 1 {
			t.Errorf("Expected 1 deletion, got %d", n)
		}
	})

	t.Run("empty locator is a no-op", func(t *testing.T) {
		store, _ := newGCSStore(t, "")

		if err := store.Release(ctx, ""); err != nil {
			t.Errorf("Release(\"\") returned unexpected error: %v", err)
		}
	})

	t.Run("locator from another bucket is rejected", func(t *testing.T) {
		store, _ := newGCSStore(t, "")

		err := store.Release(ctx, "https://storage.googleapis.com/other-bucket/u1/doc.pdf")
		if err == nil {
			t.Error("Expected error for a foreign locator")
		}
	})

	t.Run("rejected upload is an error", func(t *testing.T) {
		store, fake := newGCSStore(t, "")
		fake.denyUploads()

		if _, err := store.Put(ctx, "u1/doc.pdf", "application/pdf", pdf); err == nil {
			t.Error("Expected error when the bucket rejects the upload")
		}
	})

	t.Run("bucket is required", func(t *testing.T) {
		if _, err := artifact.NewGCSStore(ctx, "", "", "", option.WithoutAuthentication()); err == nil {
			t.Error("Expected error without a bucket")
		}
	})
}
