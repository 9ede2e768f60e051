package sqlinline

// QCreateSchema creates the tables the service reads. It is idempotent.
const QCreateSchema = `--sql 3c1f7b0e-5a2d-4e8b-9f61-2d7c4a90b5e3
create table if not exists banner_templates (
    id text primary key,
    resolution text not null,
    num_images int not null default 0,
    definition jsonb not null,
    enabled boolean not null default true,
    created_at timestamptz not null default now(),
    updated_at timestamptz not null default now()
);
create index if not exists banner_templates_resolution_idx on banner_templates (resolution, num_images) where enabled;

create table if not exists integration_tokens (
    id uuid primary key,
    provider text not null unique,
    token text not null,
    properties jsonb not null default '{}'::jsonb,
    created_at timestamptz not null default now(),
    updated_at timestamptz not null default now()
);
`
