package azblob

import (
	"context"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
)

func TestListFollowsMarkerPagination(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("comp") != "list" {
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("marker") == "" {
			_, _ = w.Write([]byte(`<?xml version="1.0" encoding="utf-8"?>
<EnumerationResults>
  <Blobs>
    <Blob><Name>regulations/a/2023-01-02_two.zip</Name></Blob>
    <Blob><Name>regulations/a/2023-01-01_one.zip</Name></Blob>
  </Blobs>
  <NextMarker>page2</NextMarker>
</EnumerationResults>`))
			return
		}
		_, _ = w.Write([]byte(`<?xml version="1.0" encoding="utf-8"?>
<EnumerationResults>
  <Blobs>
    <Blob><Name>regulations/b/2023-01-03_three.zip</Name></Blob>
  </Blobs>
  <NextMarker/>
</EnumerationResults>`))
	}))
	defer server.Close()

	client := New(server.URL, "documents", "sv=token", Options{})
	names, err := client.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	want := []string{
		"regulations/a/2023-01-01_one.zip",
		"regulations/a/2023-01-02_two.zip",
		"regulations/b/2023-01-03_three.zip",
	}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("expected sorted listing %v, got %v", want, names)
	}
}

func TestDownloadAppendsSASToken(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/documents/regulations/a/2023-01-01_one.zip" {
			http.NotFound(w, r)
			return
		}
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte("zip bytes"))
	}))
	defer server.Close()

	client := New(server.URL, "documents", "?sv=token&sig=abc", Options{})
	data, err := client.Download(context.Background(), "regulations/a/2023-01-01_one.zip")
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if string(data) != "zip bytes" {
		t.Fatalf("unexpected payload %q", data)
	}
	if gotQuery != "sv=token&sig=abc" {
		t.Fatalf("SAS token not forwarded, got query %q", gotQuery)
	}
}

func TestDownloadErrorIncludesStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "blob not found", http.StatusNotFound)
	}))
	defer server.Close()

	client := New(server.URL, "documents", "", Options{})
	if _, err := client.Download(context.Background(), "missing.zip"); err == nil {
		t.Fatalf("expected error for missing blob")
	}
}
