package fileshare

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

const _seedBatchSize = 100

// Seed inserts n demo files created one minute apart from start. File i
// has i%3 shares, every fourth file is inactive.
func Seed(ctx context.Context, db *gorm.DB, n int, start time.Time) ([]File, error) {
	if n <= 0 {
		return nil, nil
	}

	start = start.UTC()
	files := make([]File, 0, n)
	for i := 0; i < n; i++ {
		created := start.Add(time.Duration(i) * time.Minute)

		f := File{
			Created:       created,
			Updated:       created.Add(30 * time.Second),
			FileName:      fmt.Sprintf("file-%04d.bin", i),
			ObjectName:    uuid.NewString(),
			Active:        i%4 != 3,
			DownloadCount: i % 5,
			DownloadLimit: 10,
		}

		for j := 0; j < i%3; j++ {
			f.Shares = append(f.Shares, Share{
				Created:       created.Add(time.Duration(j) * time.Second),
				Updated:       created.Add(time.Duration(j+1) * time.Second),
				Key:           strings.ReplaceAll(uuid.NewString(), "-", ""),
				Expiry:        created.Add(time.Duration(n-i+j) * time.Hour),
				DownloadLimit: 5,
				DownloadCount: j,
			})
		}

		files = append(files, f)
	}

	if err := db.WithContext(ctx).CreateInBatches(&files, _seedBatchSize).Error; err != nil {
		return nil, errors.Wrap(err, "cannot seed files")
	}

	return files, nil
}
