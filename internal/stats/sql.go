package stats

const statusCountsSQL = `
SELECT
    COALESCE(SUM(CASE WHEN status = 'active' THEN 1 ELSE 0 END), 0) AS active_count,
    COALESCE(SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END), 0) AS pending_count,
    COALESCE(SUM(CASE WHEN status = 'blocked' THEN 1 ELSE 0 END), 0) AS blocked_count,
    COALESCE(SUM(CASE WHEN status = 'expired' THEN 1 ELSE 0 END), 0) AS expired_count,
    COUNT(*) AS total_count
FROM license
`

const recentActivationsSQL = `
SELECT COUNT(*)
FROM license
WHERE activated_at > ?
`

const byPlanSQL = `
SELECT
    p.plan_id,
    p.name,
    COUNT(l.license_id) AS count
FROM plan p
LEFT JOIN license l ON l.plan_id = p.plan_id
GROUP BY p.plan_id, p.name
ORDER BY count DESC, p.name
`
