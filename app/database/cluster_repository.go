package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lysyi3m/rss-clusters/app/cluster"
)

var _ ClusterRepository = (*ClusterRepo)(nil)

type ClusterRepo struct {
	db *DB
}

func NewClusterRepository(db *DB) *ClusterRepo {
	return &ClusterRepo{db: db}
}

const runColumns = `id, similarity, max_size, avg_size, seed, entry_count, cluster_count, duration_ms, created_at`

func scanRun(row rowScanner) (ClusterRun, error) {
	var run ClusterRun
	var durationMs, createdAt int64

	err := row.Scan(&run.ID, &run.Similarity, &run.MaxSize, &run.AvgSize, &run.Seed,
		&run.EntryCount, &run.ClusterCount, &durationMs, &createdAt)
	if err != nil {
		return ClusterRun{}, err
	}

	run.Duration = time.Duration(durationMs) * time.Millisecond
	run.CreatedAt = fromMillis(createdAt)
	return run, nil
}

// SaveRun stores a run with all its members in one transaction
func (r *ClusterRepo) SaveRun(run ClusterRun, members []ClusterMember) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO cluster_runs (`+runColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Similarity, run.MaxSize, run.AvgSize, run.Seed,
		run.EntryCount, run.ClusterCount, run.Duration.Milliseconds(), toMillis(run.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert cluster run: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO cluster_members (run_id, position, label, item_id, title, link, keywords)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare member insert: %w", err)
	}
	defer stmt.Close()

	for _, member := range members {
		itemID := sql.NullString{String: member.ItemID, Valid: member.ItemID != ""}
		_, err := stmt.Exec(run.ID, member.Position, member.Label, itemID,
			member.Title, member.Link, encodeList(member.Keywords))
		if err != nil {
			return fmt.Errorf("failed to insert cluster member: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cluster run: %w", err)
	}

	return nil
}

func (r *ClusterRepo) GetLatestRun() (*ClusterRun, error) {
	run, err := scanRun(r.db.QueryRow(`
		SELECT ` + runColumns + ` FROM cluster_runs ORDER BY created_at DESC, rowid DESC LIMIT 1
	`))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest cluster run: %w", err)
	}
	return &run, nil
}

func (r *ClusterRepo) GetRun(runID string) (*ClusterRun, error) {
	run, err := scanRun(r.db.QueryRow(`SELECT `+runColumns+` FROM cluster_runs WHERE id = ?`, runID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cluster run: %w", err)
	}
	return &run, nil
}

// GetRunMembers returns the members of a run ordered by label, then input position
func (r *ClusterRepo) GetRunMembers(runID string) ([]ClusterMember, error) {
	rows, err := r.db.Query(`
		SELECT run_id, position, label, COALESCE(item_id, ''), title, link, keywords
		FROM cluster_members
		WHERE run_id = ?
		ORDER BY label, position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cluster members: %w", err)
	}
	defer rows.Close()

	var members []ClusterMember
	for rows.Next() {
		var member ClusterMember
		var keywords string
		err := rows.Scan(&member.RunID, &member.Position, &member.Label, &member.ItemID,
			&member.Title, &member.Link, &keywords)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cluster member row: %w", err)
		}
		member.Keywords = decodeList(keywords)
		members = append(members, member)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cluster member rows: %w", err)
	}

	return members, nil
}

func (r *ClusterRepo) GetRunCount() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM cluster_runs").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to get cluster run count: %w", err)
	}
	return count, nil
}

// PruneRuns deletes all but the newest keep runs and returns how many were removed
func (r *ClusterRepo) PruneRuns(keep int) (int64, error) {
	if keep < 1 {
		return 0, fmt.Errorf("keep must be at least 1, got %d", keep)
	}

	result, err := r.db.Exec(`
		DELETE FROM cluster_runs
		WHERE id NOT IN (
			SELECT id FROM cluster_runs ORDER BY created_at DESC, rowid DESC LIMIT ?
		)
	`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune cluster runs: %w", err)
	}

	return result.RowsAffected()
}

// MembersFromPartition flattens a partition into member rows. itemIDs is index-aligned
// with the clustered entries and may be nil.
func MembersFromPartition(runID string, partition cluster.Partition, itemIDs []string) []ClusterMember {
	members := make([]ClusterMember, 0, partition.EntryCount())
	for _, c := range partition.Clusters() {
		for i, entry := range c.Members {
			position := c.Indices[i]
			member := ClusterMember{
				RunID:    runID,
				Position: position,
				Label:    c.Label,
				Title:    entry.Title,
				Link:     entry.Link,
				Keywords: entry.Keywords,
			}
			if position < len(itemIDs) {
				member.ItemID = itemIDs[position]
			}
			members = append(members, member)
		}
	}
	return members
}

// PartitionFromMembers rebuilds a stored run as a partition
func PartitionFromMembers(members []ClusterMember) cluster.Partition {
	partition := make(cluster.Partition)
	for _, member := range members {
		c := partition[member.Label]
		c.Label = member.Label
		c.Members = append(c.Members, cluster.Entry{
			Title:    member.Title,
			Link:     member.Link,
			Keywords: member.Keywords,
		})
		c.Indices = append(c.Indices, member.Position)
		partition[member.Label] = c
	}
	return partition
}
