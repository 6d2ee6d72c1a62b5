package mds

import "fmt"

// Stats is the catalog summary served by the stats endpoint.
//
// Timestamps are nil when the catalog holds no closed objects.
type Stats struct {
	TotalNumberObjects             int64  `json:"total_number_objects"`
	TotalStorageUsage              int64  `json:"total_storage_usage"`
	YoungestObjectUpdatedTimestamp *int64 `json:"youngest_object_updated_timestamp"`
	OldestObjectUpdatedTimestamp   *int64 `json:"oldest_object_updated_timestamp"`
	NumberObjectUploaded           int64  `json:"number_object_uploaded"`
	NumberObjectUploadInit         int64  `json:"number_object_upload_init"`
	NumberObjectSavedInTempName    int64  `json:"number_object_saved_in_temp_name"`
}

// Stats collects the catalog summary within the current session.
func (c *Client) Stats() (*Stats, error) {
	out := &Stats{}
	tbl := c.cfg.Table

	counts, err := c.QueryInts(fmt.Sprintf("SELECT COUNT(id) FROM %s", tbl))
	if err != nil {
		return nil, err
	}
	if len(counts) > 0 {
		out.TotalNumberObjects = counts[0]
	}

	// SUM(size) is NULL on an empty catalog; report 0.
	sums, err := c.QueryNullableInts(fmt.Sprintf("SELECT SUM(size) FROM %s", tbl))
	if err != nil {
		return nil, err
	}
	if len(sums) > 0 && sums[0].Valid {
		out.TotalStorageUsage = sums[0].Int64
	}

	stamps, err := c.QueryNullableInts(fmt.Sprintf(
		"SELECT DISTINCT MIN(timestamp) FROM %s UNION ALL SELECT DISTINCT MAX(timestamp) FROM %s", tbl, tbl))
	if err != nil {
		return nil, err
	}
	if len(stamps) == 2 {
		if stamps[0].Valid {
			v := stamps[0].Int64
			out.YoungestObjectUpdatedTimestamp = &v
		}
		if stamps[1].Valid {
			v := stamps[1].Int64
			out.OldestObjectUpdatedTimestamp = &v
		}
	}

	states, err := c.QueryInts(fmt.Sprintf(
		"SELECT COUNT(state) FROM %s WHERE state = 0"+
			" UNION ALL SELECT COUNT(state) FROM %s WHERE state = 1"+
			" UNION ALL SELECT COUNT(state) FROM %s WHERE state = 2", tbl, tbl, tbl))
	if err != nil {
		return nil, err
	}
	if len(states) == 3 {
		out.NumberObjectUploaded = states[0]
		out.NumberObjectUploadInit = states[1]
		out.NumberObjectSavedInTempName = states[2]
	}

	return out, nil
}
