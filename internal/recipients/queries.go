package recipients

const (
	// contractorTokenQuery returns the assigned contractor and their most recent active device.
	contractorTokenQuery = `
		SELECT COALESCE(a.contractor_id, ''), COALESCE(d.device_token, '')
		FROM assignments a
		LEFT JOIN user_devices d
			ON d.user_id = a.contractor_id AND d.is_active AND d.device_token <> ''
		WHERE a.id = $1
		ORDER BY d.last_seen_at DESC NULLS LAST
		LIMIT 1`

	// claimantTokenQuery returns the reservation's claimant and their most recent active device.
	claimantTokenQuery = `
		SELECT COALESCE(r.claimant_id, ''), COALESCE(d.device_token, '')
		FROM assignments a
		JOIN reservations r ON r.id = a.reservation_id
		LEFT JOIN user_devices d
			ON d.user_id = r.claimant_id AND d.is_active AND d.device_token <> ''
		WHERE a.id = $1
		ORDER BY d.last_seen_at DESC NULLS LAST
		LIMIT 1`

	// userTokenQuery returns the most recent active device of an explicit subject.
	userTokenQuery = `
		SELECT device_token
		FROM user_devices
		WHERE user_id = $1 AND is_active AND device_token <> ''
		ORDER BY last_seen_at DESC NULLS LAST
		LIMIT 1`

	// audienceQuery returns every active admin/scheduler device outside the excluded group.
	audienceQuery = `
		SELECT DISTINCT u.id, d.device_token
		FROM users u
		JOIN user_devices d ON d.user_id = u.id AND d.is_active AND d.device_token <> ''
		WHERE u.is_active
			AND u.role IN ('admin', 'scheduler')
			AND COALESCE(u.group_name, '') <> $1
		ORDER BY u.id, d.device_token`
)
