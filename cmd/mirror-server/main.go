package main

import (
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"strconv"
)

// Serves a local archive dump with the same paged contract the live
// archive has, so a full pipeline run works offline against
// data/archive.json.
func main() {
	var (
		addr     = flag.String("addr", ":9000", "listen address")
		dataPath = flag.String("data", "data/archive.json", "archive dump path")
	)
	flag.Parse()

	http.HandleFunc("/fragrances", func(w http.ResponseWriter, r *http.Request) {
		b, err := os.ReadFile(*dataPath)
		if err != nil {
			http.Error(w, "cannot read archive dump: "+err.Error(), http.StatusInternalServerError)
			return
		}

		var all []map[string]any
		if err := json.Unmarshal(b, &all); err != nil {
			http.Error(w, "archive dump invalid JSON: "+err.Error(), http.StatusInternalServerError)
			return
		}

		limit := queryInt(r, "limit", 200)
		offset := queryInt(r, "offset", 0)

		page := []map[string]any{}
		if offset < len(all) {
			end := offset + limit
			if end > len(all) {
				end = len(all)
			}
			page = all[offset:end]
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(page)
	})

	log.Printf("mirror-server listening on %s, serving %s", *addr, *dataPath)
	log.Fatal(http.ListenAndServe(*addr, nil))
}

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}
