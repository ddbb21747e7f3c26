package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	// --- Database storage health ---
	for _, file := range []string{"main", "wal", "shm"} {
		DBStorageErrors.WithLabelValues(file)
		DBSizeBytes.WithLabelValues(file)
	}

	// --- Filesystem operation metrics (per volume × operation) ---
	volumes := []string{"images", "cache", "database", "unknown"}
	fsOps := []string{"read", "write", "stat", "readdir"}

	for _, vol := range volumes {
		for _, op := range fsOps {
			FilesystemOperationDuration.WithLabelValues(vol, op)
			FilesystemOperationErrors.WithLabelValues(vol, op)
		}
	}

	// --- Filesystem retry metrics (per retry-operation × volume) ---
	retryOps := []string{"stat", "open", "readdir"}

	for _, op := range retryOps {
		for _, vol := range volumes {
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemStaleErrors.WithLabelValues(op, vol)
			FilesystemRetryDuration.WithLabelValues(op, vol)
		}
	}

	// --- Thumbnail source decode formats ---
	for _, format := range []string{"jpeg", "png", "gif", "webp", "bmp", "tiff", "unknown"} {
		ThumbnailDecodeByFormat.WithLabelValues(format)
	}

	// --- Thumbnail generation outcomes ---
	for _, status := range []string{"success", "error", "stale"} {
		ThumbnailGenerationsTotal.WithLabelValues(status)
	}

	// --- DB query operations ---
	for _, op := range []string{
		"init_schema", "upsert_image", "prune_images", "prune_directory_images",
		"prune_outside_roots",
		"get_images", "get_image", "set_image_dimensions",
		"add_directory", "remove_directory", "get_directories",
		"get_or_create_tag", "add_image_tag", "remove_image_tag",
		"set_image_tags", "apply_tag_changes", "get_tags_with_counts",
		"get_assignments", "delete_tag",
		"get_setting", "set_setting",
		"validate_password", "create_session", "validate_session",
		"begin_batch", "commit", "rollback",
	} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}

	for _, t := range []string{"commit", "rollback", "batch_insert", "cleanup"} {
		DBTransactionDuration.WithLabelValues(t)
	}

	// --- Authentication outcomes ---
	for _, status := range []string{"success", "failure"} {
		AuthAttemptsTotal.WithLabelValues(status)
	}
}
