package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"studiosite/internal/assets"
	"studiosite/internal/telemetry"
)

type AssetHandler struct {
	Assets    *assets.Manager
	Processor *assets.Processor
	Tracer    trace.Tracer
	Metrics   *telemetry.Metrics
	Logger    *slog.Logger
}

const cacheForAYear = 31536000

func (h *AssetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.Tracer.Start(r.Context(), "AssetHandler.ServeHTTP")
	defer span.End()
	h.Metrics.AssetRequestsTotal.Add(ctx, 1)

	// expected format: /assets/{key} where key = <uuid>_<width>
	idStr, widthStr, ok := strings.Cut(r.PathValue("key"), "_")
	if !ok {
		http.NotFound(w, r)
		return
	}

	width, err := strconv.Atoi(widthStr)
	if err != nil || !slices.Contains(assets.Widths, width) {
		http.NotFound(w, r)
		return
	}

	id, err := uuid.FromString(idStr)
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	if h.Processor.Cached(ctx, id.String(), width) {
		span.SetAttributes(attribute.String("cache.status", "hit"))
		h.Metrics.CacheHitsTotal.Add(ctx, 1)

		reader, err := h.Processor.OpenVariant(ctx, id.String(), width)
		if err == nil {
			defer reader.Close()
			w.Header().Set("X-Cache", "HIT")
			w.Header().Set("Content-Type", "image/webp")
			w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d, immutable", cacheForAYear))
			if _, err := io.Copy(w, reader); err != nil {
				h.Logger.Warn("stream interrupted", "err", err)
			}
			return
		}
		// evicted between the check and the open, serve the original
		h.Logger.Warn("cached variant vanished", "id", id, "width", width, "err", err)
	}

	span.SetAttributes(attribute.String("cache.status", "miss"))
	h.Metrics.CacheMissesTotal.Add(ctx, 1)

	sourceKey, err := h.Assets.SourceKey(id)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	h.enqueueVariants(ctx, sourceKey, id)

	reader, err := h.Assets.Retrieve(ctx, id)
	if err != nil {
		h.Logger.Error("failed to retrieve original asset", "id", id, "err", err)
		http.NotFound(w, r)
		return
	}
	defer reader.Close()

	mimeType := mime.TypeByExtension(path.Ext(sourceKey))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	w.Header().Set("X-Cache", "MISS")
	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Cache-Control", "public, max-age=60")

	if _, err := io.Copy(w, reader); err != nil {
		h.Logger.Warn("stream interrupted", "err", err)
	}
}

// enqueueVariants asks for every width so later requests hit the cache.
// Jobs outlive the request.
func (h *AssetHandler) enqueueVariants(ctx context.Context, sourceKey string, id uuid.UUID) {
	enqueueCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	parent := trace.SpanFromContext(ctx).SpanContext()
	for _, width := range assets.Widths {
		err := h.Processor.Enqueue(enqueueCtx, assets.Job{
			SourceKey:  sourceKey,
			ID:         id.String(),
			Width:      width,
			ParentSpan: parent,
		})
		if errors.Is(err, assets.ErrQueueFull) {
			h.Logger.Warn("image queue full, skipping variants", "id", id)
			return
		}
	}
}
