package scorestore

import (
	"fmt"

	"github.com/huangsam/devscore/schema"
)

// PrintStoreStatus prints score store status information.
func PrintStoreStatus(status schema.StoreStatus) {
	fmt.Printf("Store Backend: %s\n", status.Backend)
	fmt.Printf("Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	fmt.Println("Table Sizes:")
	for table, size := range status.TableSizes {
		fmt.Printf("  %s: %d rows\n", table, size)
	}
	if status.LatestSnapshot != "" {
		fmt.Printf("Latest Snapshot: %s\n", status.LatestSnapshot)
	}
}
