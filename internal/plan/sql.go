package plan

const getAllPlansSQL = `
SELECT
    plan_id,
    name,
    duration_days,
    price,
    description,
    active
FROM plan
ORDER BY duration_days, plan_id
`

const getPlanSQL = `
SELECT
    plan_id,
    name,
    duration_days,
    price,
    description,
    active
FROM plan
WHERE plan_id = ?
`
