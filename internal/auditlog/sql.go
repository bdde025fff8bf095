package auditlog

const appendEntrySQL = `
INSERT INTO license_log (
    license_id,
    action,
    details,
    ip_address,
    hardware_id,
    created_at
) VALUES (?, ?, ?, ?, ?, ?)
`

const listForLicenseSQL = `
SELECT
    log_id,
    license_id,
    action,
    details,
    ip_address,
    hardware_id,
    created_at
FROM license_log
WHERE license_id = ?
ORDER BY created_at DESC, log_id DESC
LIMIT ?
`
