/*
Copyright © 2026 the dsfuse authors.
This file is part of dsfuse.

dsfuse is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

dsfuse is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with dsfuse.  If not, see <http://www.gnu.org/licenses/>.
*/

package gridio

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/cenkalti/backoff"
	"github.com/google/go-cloud/blob"
	"github.com/google/go-cloud/blob/fileblob"
	"github.com/google/go-cloud/blob/gcsblob"
	"github.com/google/go-cloud/blob/s3blob"
	"github.com/google/go-cloud/gcp"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/dsfuse/internal/hash"
)

// Fetcher makes remote inputs available as local files. Downloads are
// retried with exponential backoff.
type Fetcher struct {
	// Dir is the directory downloads are saved to. If empty, a temporary
	// directory is created on the first download and removed by Close.
	Dir string

	// Log receives retry notices. If nil, the standard logger is used.
	Log logrus.FieldLogger

	// MaxRetries is the number of times a failed download is retried.
	MaxRetries uint64

	// BackOff returns the backoff policy for one download. If nil,
	// backoff.NewExponentialBackOff is used.
	BackOff func() backoff.BackOff

	mu  sync.Mutex
	tmp string
}

// NewFetcher returns a Fetcher that retries each download up to five times.
// Call Close when the downloaded files are no longer needed.
func NewFetcher(log logrus.FieldLogger) *Fetcher {
	return &Fetcher{Log: log, MaxRetries: 5}
}

// Close removes the temporary download directory, if one was created.
// Files saved to Dir are left in place.
func (f *Fetcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tmp == "" {
		return nil
	}
	err := os.RemoveAll(f.tmp)
	f.tmp = ""
	return err
}

// downloadDir returns the directory downloads are saved to.
func (f *Fetcher) downloadDir() (string, error) {
	if f.Dir != "" {
		return f.Dir, nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tmp == "" {
		dir, err := ioutil.TempDir("", "dsfuse")
		if err != nil {
			return "", fmt.Errorf("gridio: creating temporary download directory: %v", err)
		}
		f.tmp = dir
	}
	return f.tmp, nil
}

// IsBlob returns whether the given filename represents a blob.
// (i.e., if it starts with `gs://`, 's3://', or 'file://').
func IsBlob(path string) bool {
	return strings.HasPrefix(path, "gs://") || strings.HasPrefix(path, "s3://") || strings.HasPrefix(path, "file://")
}

func isHTTP(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}

func isRemote(path string) bool { return isHTTP(path) || IsBlob(path) }

// Fetch returns the path of a local file holding the contents of p.
// Local files are returned unchanged; HTTP(S) URLs and blob URLs are
// downloaded first.
func (f *Fetcher) Fetch(ctx context.Context, p string) (string, error) {
	switch {
	case isHTTP(p):
		return f.download(ctx, p, func(ctx context.Context) (io.ReadCloser, error) {
			return httpGet(ctx, p)
		})
	case IsBlob(p):
		loc, err := parseBlobURL(p)
		if err != nil {
			return "", err
		}
		bucket, err := loc.open(ctx)
		if err != nil {
			return "", err
		}
		return f.download(ctx, p, func(ctx context.Context) (io.ReadCloser, error) {
			r, err := bucket.NewReader(ctx, loc.key)
			if blob.IsNotExist(err) {
				return nil, backoff.Permanent(err)
			}
			return r, err
		})
	}
	if _, err := os.Stat(p); err != nil {
		return "", fmt.Errorf("gridio: input file: %v", err)
	}
	return p, nil
}

// download saves the contents returned by open to a local file, retrying
// on failure unless open returns a *backoff.PermanentError.
func (f *Fetcher) download(ctx context.Context, p string, open func(context.Context) (io.ReadCloser, error)) (string, error) {
	dir, err := f.downloadDir()
	if err != nil {
		return "", err
	}
	// Inputs from different locations may share a base name.
	dst := filepath.Join(dir, hash.Key(p)+"_"+path.Base(p))

	var b backoff.BackOff
	if f.BackOff != nil {
		b = f.BackOff()
	} else {
		b = backoff.NewExponentialBackOff()
	}
	b = backoff.WithContext(backoff.WithMaxRetries(b, f.MaxRetries), ctx)

	log := f.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	err = backoff.RetryNotify(
		func() error {
			r, err := open(ctx)
			if err != nil {
				return err
			}
			defer r.Close()
			w, err := os.Create(dst)
			if err != nil {
				return err
			}
			if _, err = io.Copy(w, r); err != nil {
				w.Close()
				return err
			}
			return w.Close()
		},
		b,
		func(err error, d time.Duration) {
			log.WithField("input", p).Warnf("%v: retrying in %v", err, d)
		},
	)
	if err != nil {
		return "", fmt.Errorf("gridio: downloading %s: %v", p, err)
	}
	return dst, nil
}

// httpGet requests p. Client errors (4xx) are permanent; other
// unsuccessful responses may be retried.
func httpGet(ctx context.Context, p string) (io.ReadCloser, error) {
	req, err := http.NewRequest(http.MethodGet, p, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	resp, err := http.DefaultClient.Do(req.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		err = fmt.Errorf("%s: %s", p, resp.Status)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}
	return resp.Body, nil
}

// blobLocation is an object in blob storage.
type blobLocation struct {
	provider string // file, gs, or s3
	bucket   string // bucket name, or directory for the file provider
	key      string
}

// parseBlobURL splits a blob URL into its provider, bucket, and key.
// For gs:// and s3:// URLs the host is the bucket and the path is the key.
// For file:// URLs the directory holding the file is the bucket, so both
// file:///abs/dir/name.nc and file://rel/dir/name.nc work.
func parseBlobURL(p string) (blobLocation, error) {
	u, err := url.Parse(p)
	if err != nil {
		return blobLocation{}, fmt.Errorf("gridio: %v", err)
	}
	var loc blobLocation
	switch u.Scheme {
	case "file":
		full := path.Join(u.Host, u.Path)
		loc = blobLocation{provider: u.Scheme, bucket: filepath.FromSlash(path.Dir(full)), key: path.Base(full)}
	case "gs", "s3":
		loc = blobLocation{provider: u.Scheme, bucket: u.Host, key: strings.TrimPrefix(u.Path, "/")}
	default:
		return blobLocation{}, fmt.Errorf("gridio: invalid blob provider %q in %s", u.Scheme, p)
	}
	if loc.bucket == "" || loc.key == "" || loc.key == "." || loc.key == "/" {
		return blobLocation{}, fmt.Errorf("gridio: blob URL %s needs both a bucket and a key", p)
	}
	return loc, nil
}

// open returns the bucket holding the object.
func (loc blobLocation) open(ctx context.Context) (*blob.Bucket, error) {
	var b *blob.Bucket
	var err error
	switch loc.provider {
	case "file":
		b, err = fileblob.NewBucket(loc.bucket)
	case "gs":
		b, err = gsBucket(ctx, loc.bucket)
	case "s3":
		b, err = s3Bucket(ctx, loc.bucket)
	}
	if err != nil {
		return nil, fmt.Errorf("gridio: opening %s bucket %q: %v", loc.provider, loc.bucket, err)
	}
	return b, nil
}

func gsBucket(ctx context.Context, name string) (*blob.Bucket, error) {
	creds, err := gcp.DefaultCredentials(ctx)
	if err != nil {
		return nil, err
	}
	c, err := gcp.NewHTTPClient(gcp.DefaultTransport(), gcp.CredentialsTokenSource(creds))
	if err != nil {
		return nil, err
	}
	return gcsblob.OpenBucket(ctx, name, c)
}

// s3Bucket opens an s3 bucket using credentials from AWS_ACCESS_KEY_ID
// and AWS_SECRET_ACCESS_KEY. The region comes from AWS_REGION and
// defaults to us-east-2.
func s3Bucket(ctx context.Context, name string) (*blob.Bucket, error) {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = "us-east-2"
	}
	s, err := session.NewSession(&aws.Config{
		Region:      aws.String(region),
		Credentials: credentials.NewEnvCredentials(),
	})
	if err != nil {
		return nil, err
	}
	return s3blob.OpenBucket(ctx, s, name)
}
