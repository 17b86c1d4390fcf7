package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type bookRow struct {
	ISBN  string `gorm:"primaryKey"`
	Title string
	Stock int
}

func openTestClient(t *testing.T) *Client {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&bookRow{}); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return &Client{conn: conn}
}

func countBooks(t *testing.T, client *Client) int64 {
	t.Helper()
	var count int64
	if err := client.DB().Model(&bookRow{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return count
}

func TestWithTxCommits(t *testing.T) {
	client := openTestClient(t)

	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		return tx.Create(&bookRow{ISBN: "9780134190440", Title: "The Go Programming Language", Stock: 3}).Error
	})
	if err != nil {
		t.Fatalf("WithTx: %v", err)
	}
	if got := countBooks(t, client); got != 1 {
		t.Fatalf("books = %d, want 1", got)
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	client := openTestClient(t)

	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		if err := tx.Create(&bookRow{ISBN: "9781491941959", Title: "Go in Practice"}).Error; err != nil {
			return err
		}
		return errors.New("abort")
	})
	if err == nil {
		t.Fatal("expected WithTx to surface the handler error")
	}
	if got := countBooks(t, client); got != 0 {
		t.Fatalf("rollback left %d rows, want 0", got)
	}
}

func TestWithTxRollsBackOnPanic(t *testing.T) {
	client := openTestClient(t)

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("expected the panic to be re-raised")
			}
		}()
		_ = client.WithTx(context.Background(), func(tx *gorm.DB) error {
			if err := tx.Create(&bookRow{ISBN: "9780596007126", Title: "Head First"}).Error; err != nil {
				return err
			}
			panic("handler blew up")
		})
	}()

	if got := countBooks(t, client); got != 0 {
		t.Fatalf("panic rollback left %d rows, want 0", got)
	}
}

func TestPing(t *testing.T) {
	client := openTestClient(t)
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}
