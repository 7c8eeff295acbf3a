package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"iter"
	"log/slog"
	"math/rand/v2"
	"os"
	"time"

	"github.com/poiesic/grievance/ai"
	"github.com/poiesic/grievance/ai/keyword"
	"github.com/poiesic/grievance/core"
	"github.com/poiesic/grievance/folder"
	"github.com/poiesic/grievance/storage"
	"github.com/poiesic/grievance/storage/badger"
)

var complaints = []string{
	"Huge pothole near Main Street, two bikes skidded yesterday. Please fix urgently.",
	"Garbage has not been collected for a week near Market Road. The smell is unbearable.",
	"Street light not working near Lake View Apartments since 12/03/2024, it's dangerous at night.",
	"Sewage overflowing near Gandhi Nagar bus stop, emergency!",
	"Water leakage from the main pipe near Temple Street, wasting water for days.",
	"Electric pole leaning dangerously near Park Avenue after the storm.",
	"Power cut every evening in Indira Colony, it's been three weeks.",
	"Blocked drain near City Hospital causing flooding whenever it rains.",
	"Tree fallen across the road near Railway Station, blocking traffic. Clear immediately.",
	"Road damage near Central Library, the surface has completely broken up.",
	"Garbage dumped next to the school gate near Rose Garden, children fall sick.",
	"Pothole filled with water near Old Bridge, not visible at night, asap please.",
	"Street light flickering near Bus Depot on 5 March.",
	"Sewage smell near Fish Market getting worse every day.",
	"Water leakage near Sector 4 park, the pavement is slippery.",
	"The drain is blocked again near Hill Road, mosquitoes everywhere.",
	"Collapsed trees near Riverside Walk after the storm last night.",
	"Power cut near Industrial Area since morning, factories stopped.",
	"Electric pole wires hanging low near Kids Play Area, dangerous.",
	"Road damage near Airport Road junction, accidents happening daily.",
}

var (
	dir          = flag.String("dir", "./data/blobs", "BadgerDB blob store directory")
	count        = flag.Int("n", 25, "number of complaint folders to create")
	seedFileName = flag.String("src", "", "file of complaint texts, one per line")
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
}

// linesFromFile returns an iterator over lines in a file.
func linesFromFile(filename string) (iter.Seq[string], error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	return func(yield func(string) bool) {
		defer f.Close()
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			if !yield(scanner.Text()) {
				return
			}
		}
	}, nil
}

// cycle returns an iterator that repeats lines until n have been yielded.
func cycle(lines []string, n int) iter.Seq[string] {
	return func(yield func(string) bool) {
		if len(lines) == 0 {
			return
		}
		for i := range n {
			if !yield(lines[i%len(lines)]) {
				return
			}
		}
	}
}

var labelClasses = []string{"pothole", "garbage", "fallen-tree", "streetlight", "waterlogging"}

// sampleLabel builds an inference response with a few random detections.
func sampleLabel(rng *rand.Rand) map[string]any {
	preds := []map[string]any{}
	for range rng.IntN(3) + 1 {
		preds = append(preds, map[string]any{
			"class":      labelClasses[rng.IntN(len(labelClasses))],
			"confidence": float64(rng.IntN(1000)) / 1000,
		})
	}
	return map[string]any{"predictions": map[string]any{"predictions": preds}}
}

// seedFolders writes one complaint folder per text. Roughly one in ten is
// withdrawn and one in five lacks its location, so every outcome shows up.
// Every other folder gets extracted features; about a third get a photo label.
func seedFolders(ctx context.Context, blobs storage.BlobStore, extractor ai.FeatureExtractor, source iter.Seq[string], start time.Time, rng *rand.Rand) (int, error) {
	written := 0
	for text := range source {
		created := start.Add(time.Duration(written) * time.Minute)
		key := core.NewFolderKey(created)

		meta := core.Metadata{
			User:      fmt.Sprintf("citizen%03d", rng.IntN(1000)),
			Timestamp: created.Format("2006-01-02T15:04:05"),
			Status:    core.StatusPending,
			HasText:   true,
		}
		history := []core.StatusEntry{{
			Status:    core.StatusPending,
			Timestamp: meta.Timestamp,
			Action:    "submitted",
			By:        meta.User,
		}}
		if rng.IntN(10) == 0 {
			withdrawn := created.Add(time.Hour).Format("2006-01-02T15:04:05")
			meta.Status = core.StatusWithdrawn
			meta.WithdrawnAt = withdrawn
			meta.WithdrawnBy = meta.User
			history = append(history, core.StatusEntry{
				Status:    core.StatusWithdrawn,
				Timestamp: withdrawn,
				Action:    "withdrawn",
				By:        meta.User,
				Notes:     "resolved by neighbours",
			})
		}

		artifacts := map[string]any{
			folder.StatusHistoryFile: history,
		}
		if rng.IntN(5) != 0 {
			meta.HasLocation = true
			artifacts[folder.LocationFile] = core.Location{
				Latitude:  12.9716 + (rng.Float64()-0.5)/10,
				Longitude: 77.5946 + (rng.Float64()-0.5)/10,
			}
		}
		if rng.IntN(3) == 0 {
			meta.HasPhoto = true
			artifacts[folder.LabelFile] = sampleLabel(rng)
		}
		if written%2 == 0 {
			extract, err := extractor.ExtractFeatures(ctx, text)
			if err != nil {
				return written, fmt.Errorf("extracting features: %w", err)
			}
			artifacts[folder.ExtractFile] = extract
		}
		artifacts[folder.MetadataFile] = meta

		for name, v := range artifacts {
			data, err := json.MarshalIndent(v, "", "  ")
			if err != nil {
				return written, err
			}
			if err := blobs.Write(ctx, key.Artifact(name), data, "application/json"); err != nil {
				return written, fmt.Errorf("writing %s: %w", key.Artifact(name), err)
			}
		}
		if err := blobs.Write(ctx, key.Artifact(folder.TextFile), []byte(text), "text/plain"); err != nil {
			return written, fmt.Errorf("writing %s: %w", key.Artifact(folder.TextFile), err)
		}

		slog.Debug("seeded folder", "folder", key.String(), "status", meta.Status, "has_location", meta.HasLocation)
		written++
	}
	return written, nil
}

func main() {
	flag.Parse()

	blobs, err := badger.OpenBlobStore(*dir)
	if err != nil {
		panic(err)
	}
	defer blobs.Close()

	ctx := context.Background()

	// Determine source of seed data
	var source iter.Seq[string]
	if *seedFileName != "" {
		source, err = linesFromFile(*seedFileName)
		if err != nil {
			panic(err)
		}
	} else {
		source = cycle(complaints, *count)
	}

	rng := rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	written, err := seedFolders(ctx, blobs, keyword.New(), source, time.Now().UTC().Add(-24*time.Hour), rng)
	if err != nil {
		panic(err)
	}
	slog.Info("seeding complete", "folders", written, "dir", *dir)
}
