package mysql

// Re-recording the same build id overwrites it; the composer CLI retries a
// request file under the same id.
const insertBuildSQL = `
INSERT INTO document_builds
  (id, filename, client_name, destination, hotels, pages, failed_assets, bytes, status, error, duration_ms, created_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  filename      = VALUES(filename),
  pages         = VALUES(pages),
  failed_assets = VALUES(failed_assets),
  bytes         = VALUES(bytes),
  status        = VALUES(status),
  error         = VALUES(error),
  duration_ms   = VALUES(duration_ms)
`

// Newest first; matches idx_builds_created.
const listBuildsSQL = `
SELECT id, filename, client_name, destination, hotels, pages, failed_assets, bytes, status, error, duration_ms, created_at
FROM document_builds
ORDER BY created_at DESC, id DESC
LIMIT ?
`

const getBuildSQL = `
SELECT id, filename, client_name, destination, hotels, pages, failed_assets, bytes, status, error, duration_ms, created_at
FROM document_builds
WHERE id = ?
`
