// Package storagetest provides an in-process S3-compatible endpoint for tests.
package storagetest

import (
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"time"
)

// Object is a blob held by the fake server
type Object struct {
	Data         []byte
	ContentType  string
	LastModified time.Time
}

// FakeS3 serves the handful of path-style S3 calls the storage package makes:
// HeadBucket, CreateBucket, PutObject, GetObject, DeleteObject and ListObjectsV2.
type FakeS3 struct {
	Server *httptest.Server

	mu          sync.Mutex
	buckets     map[string]bool
	objects     map[string]Object // "bucket/key"
	failMethods map[string]bool   // methods forced to fail with 500
}

// NewFakeS3 starts a fake endpoint; callers stop it with Close
func NewFakeS3() *FakeS3 {
	f := &FakeS3{
		buckets:     map[string]bool{},
		objects:     map[string]Object{},
		failMethods: map[string]bool{},
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	return f
}

func (f *FakeS3) URL() string { return f.Server.URL }

func (f *FakeS3) Close() { f.Server.Close() }

// FailMethod makes every request with the given HTTP method return 500
func (f *FakeS3) FailMethod(method string, fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failMethods[method] = fail
}

// Object returns a stored blob
func (f *FakeS3) Object(bucket, key string) (Object, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.objects[bucket+"/"+key]
	return obj, ok
}

// PutObject seeds a blob directly, bypassing the HTTP API
func (f *FakeS3) PutObject(bucket, key string, obj Object) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.buckets[bucket] = true
	f.objects[bucket+"/"+key] = obj
}

// Keys lists stored keys in a bucket
func (f *FakeS3) Keys(bucket string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var keys []string
	for k := range f.objects {
		if rest, ok := strings.CutPrefix(k, bucket+"/"); ok {
			keys = append(keys, rest)
		}
	}
	sort.Strings(keys)
	return keys
}

func (f *FakeS3) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failMethods[r.Method] {
		writeError(w, http.StatusInternalServerError, "InternalError")
		return
	}

	bucket, key, _ := strings.Cut(strings.TrimPrefix(r.URL.Path, "/"), "/")

	if key == "" {
		f.serveBucket(w, r, bucket)
		return
	}

	id := bucket + "/" + key
	switch r.Method {
	case http.MethodPut:
		data, err := io.ReadAll(r.Body)
		if err != nil {
			writeError(w, http.StatusBadRequest, "IncompleteBody")
			return
		}
		f.objects[id] = Object{Data: data, ContentType: r.Header.Get("Content-Type"), LastModified: time.Now().UTC()}
		w.Header().Set("ETag", `"fake"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		obj, ok := f.objects[id]
		if !ok {
			writeError(w, http.StatusNotFound, "NoSuchKey")
			return
		}
		w.Header().Set("Content-Type", obj.ContentType)
		w.Header().Set("Content-Length", fmt.Sprint(len(obj.Data)))
		_, _ = w.Write(obj.Data)
	case http.MethodDelete:
		delete(f.objects, id)
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, http.StatusMethodNotAllowed, "MethodNotAllowed")
	}
}

func (f *FakeS3) serveBucket(w http.ResponseWriter, r *http.Request, bucket string) {
	switch r.Method {
	case http.MethodHead:
		if !f.buckets[bucket] {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	case http.MethodPut:
		f.buckets[bucket] = true
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		f.list(w, r, bucket)
	default:
		writeError(w, http.StatusMethodNotAllowed, "MethodNotAllowed")
	}
}

type listResult struct {
	XMLName     xml.Name       `xml:"ListBucketResult"`
	Name        string         `xml:"Name"`
	Prefix      string         `xml:"Prefix"`
	KeyCount    int            `xml:"KeyCount"`
	MaxKeys     int            `xml:"MaxKeys"`
	IsTruncated bool           `xml:"IsTruncated"`
	Contents    []listContents `xml:"Contents"`
}

type listContents struct {
	Key          string `xml:"Key"`
	LastModified string `xml:"LastModified"`
	ETag         string `xml:"ETag"`
	Size         int64  `xml:"Size"`
	StorageClass string `xml:"StorageClass"`
}

func (f *FakeS3) list(w http.ResponseWriter, r *http.Request, bucket string) {
	prefix := r.URL.Query().Get("prefix")
	res := listResult{Name: bucket, Prefix: prefix, MaxKeys: 1000}

	var keys []string
	for id := range f.objects {
		if k, ok := strings.CutPrefix(id, bucket+"/"); ok && strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		obj := f.objects[bucket+"/"+k]
		res.Contents = append(res.Contents, listContents{
			Key:          k,
			LastModified: obj.LastModified.Format("2006-01-02T15:04:05.000Z"),
			ETag:         `"fake"`,
			Size:         int64(len(obj.Data)),
			StorageClass: "STANDARD",
		})
	}
	res.KeyCount = len(res.Contents)

	w.Header().Set("Content-Type", "application/xml")
	_, _ = io.WriteString(w, xml.Header)
	_ = xml.NewEncoder(w).Encode(res)
}

func writeError(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(status)
	_, _ = fmt.Fprintf(w, "%s<Error><Code>%s</Code><Message>%s</Message></Error>", xml.Header, code, code)
}
