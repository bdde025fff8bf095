package account

const accountColumns = `
    admin_id,
    username,
    password_hash,
    name,
    email,
    role,
    active,
    created_at,
    updated_at
`

const getAccountSQL = `
SELECT` + accountColumns + `
FROM admin
WHERE admin_id = ?
`

const getAccountByUsernameSQL = `
SELECT` + accountColumns + `
FROM admin
WHERE username = ?
`

const countAccountsSQL = `
SELECT COUNT(*) FROM admin
`

const createAccountSQL = `
INSERT INTO admin (
    admin_id,
    username,
    password_hash,
    name,
    email,
    role,
    active,
    created_at,
    updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const updatePasswordSQL = `
UPDATE admin
SET
    password_hash = ?,
    updated_at = ?
WHERE admin_id = ?
`
