package sqlinline

const QSelectBannerTemplates = `--sql 9d2ca98b-35ba-4f4c-8806-8fb672372d33
select id, definition
from banner_templates
where enabled
order by created_at, id;
`

const QUpsertBannerTemplate = `--sql 02a336d6-f50a-41cd-8d16-dfa77f6495c1
insert into banner_templates (id, resolution, num_images, definition, enabled, created_at, updated_at)
values ($1::text, $2::text, $3::int, $4::jsonb, true, now(), now())
on conflict (id) do update set
    resolution = excluded.resolution,
    num_images = excluded.num_images,
    definition = excluded.definition,
    enabled = true,
    updated_at = now();
`

const QDisableBannerTemplate = `--sql de91a6e7-fefc-4bb4-9cb1-6293a10c792c
update banner_templates
set enabled = false,
    updated_at = now()
where id = $1::text;
`
