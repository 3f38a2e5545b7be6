package sqlinline

const QInsertAnalysis = `--sql 3c9f7a1e-52b4-4d0e-8f61-7a2e9d4b6c05
insert into assistant_analyses (id, prompt, fields, storage_key, mime, bytes, created_at)
values ($1::uuid, $2::text, $3::jsonb, nullif($4::text, ''), $5::text, $6::bigint, now())
returning created_at;
`

const QListRecentAnalyses = `--sql e4b1d2c7-9a3f-4e68-b5d0-1f7c8a2e6b39
select id::text, prompt, fields, coalesce(storage_key, ''), mime, bytes, created_at
from assistant_analyses
order by created_at desc
limit $1::int;
`
