package application

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateTransactionID は TXN 接頭辞付きの決済トランザクションIDを生成する。
// UUID v4 由来のサフィックスを使うため、並行生成でもプロセス全体で一意になる
func GenerateTransactionID() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))
	return fmt.Sprintf("TXN%d%s", time.Now().UnixMilli(), suffix[:12])
}
