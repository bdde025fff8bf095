package license

const licenseColumns = `
    l.license_id,
    l.license_key,
    l.plan_id,
    l.status,
    l.hardware_id,
    l.machine_name,
    l.customer_name,
    l.customer_email,
    l.customer_phone,
    l.notes,
    l.activated_at,
    l.expires_at,
    l.blocked_at,
    l.blocked_reason,
    l.last_validation_at,
    l.last_validation_ip,
    l.activation_count,
    l.max_activations,
    l.created_at,
    l.updated_at,
    p.name AS plan_name,
    p.price AS plan_price,
    p.duration_days
`

const getLicenseSQL = `
SELECT` + licenseColumns + `
FROM license l
JOIN plan p ON p.plan_id = l.plan_id
WHERE l.license_id = ?
`

const getLicenseByKeySQL = `
SELECT` + licenseColumns + `
FROM license l
JOIN plan p ON p.plan_id = l.plan_id
WHERE l.license_key = ?
`

// Empty status and search parameters disable their filter.
const listLicensesSQL = `
SELECT` + licenseColumns + `
FROM license l
JOIN plan p ON p.plan_id = l.plan_id
WHERE (? = '' OR l.status = ?)
  AND (? = '' OR l.search_text LIKE ? ESCAPE '\')
ORDER BY l.created_at DESC, l.rowid DESC
LIMIT ? OFFSET ?
`

const createLicenseSQL = `
INSERT INTO license (
    license_id,
    license_key,
    plan_id,
    status,
    customer_name,
    customer_email,
    customer_phone,
    notes,
    search_text,
    max_activations,
    created_at,
    updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// The hardware predicate makes a concurrent binding with a different
// fingerprint update zero rows.
const activateLicenseSQL = `
UPDATE license
SET
    status = 'active',
    hardware_id = ?,
    machine_name = COALESCE(?, machine_name),
    activated_at = COALESCE(activated_at, ?),
    expires_at = ?,
    last_validation_at = ?,
    last_validation_ip = ?,
    activation_count = activation_count + 1,
    updated_at = ?
WHERE license_id = ? AND (hardware_id IS NULL OR hardware_id = ?)
`

const markValidatedSQL = `
UPDATE license
SET
    last_validation_at = ?,
    last_validation_ip = ?,
    updated_at = ?
WHERE license_id = ?
`

const markExpiredSQL = `
UPDATE license
SET
    status = 'expired',
    updated_at = ?
WHERE license_id = ?
`

const blockLicenseSQL = `
UPDATE license
SET
    status = 'blocked',
    blocked_at = ?,
    blocked_reason = ?,
    updated_at = ?
WHERE license_id = ?
`

const unblockLicenseSQL = `
UPDATE license
SET
    status = 'active',
    blocked_at = NULL,
    blocked_reason = NULL,
    updated_at = ?
WHERE license_id = ?
`

const resetHardwareSQL = `
UPDATE license
SET
    hardware_id = NULL,
    machine_name = NULL,
    updated_at = ?
WHERE license_id = ?
`

const updateLicenseSQL = `
UPDATE license
SET
    customer_name = ?,
    customer_email = ?,
    customer_phone = ?,
    notes = ?,
    search_text = ?,
    updated_at = ?
WHERE license_id = ?
`

const deleteLicenseSQL = `
DELETE FROM license
WHERE license_id = ?
`
