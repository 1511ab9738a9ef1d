package export

import (
	"fmt"
	"path/filepath"

	"github.com/j-veylop/hpc-usage-report/internal/logger"
	"github.com/j-veylop/hpc-usage-report/internal/models"
)

// GroupListFileName returns the PI list name for a month label such as "Mar2024".
func GroupListFileName(label string) string {
	return fmt.Sprintf("PIList-%s.xlsx", label)
}

// UserListFileName returns the user list name for a month label.
func UserListFileName(label string) string {
	return fmt.Sprintf("UserList-%s.xlsx", label)
}

// WriteGroupList writes the PI list workbook and returns its path.
func WriteGroupList(groups []models.Group, outDir, label string) (string, error) {
	rows := make([][]string, len(groups))
	for i, g := range groups {
		rows[i] = []string{g.GID, g.NGID, g.FirstName, g.LastName, g.Department, g.Email}
	}
	path := filepath.Join(outDir, GroupListFileName(label))
	header := []string{"gid", "ngid", "First name", "Last name", "Department", "Email"}
	if err := writeTable(path, "PI info", header, rows); err != nil {
		return "", err
	}
	logger.Info("wrote group list", "path", path, "groups", len(groups))
	return path, nil
}

// WriteUserList writes the user list workbook and returns its path.
func WriteUserList(users []models.User, outDir, label string) (string, error) {
	rows := make([][]string, len(users))
	for i, u := range users {
		rows[i] = []string{u.UID, u.GID, u.NUID, u.FirstName, u.LastName, u.Email}
	}
	path := filepath.Join(outDir, UserListFileName(label))
	header := []string{"uid", "gid", "nuid", "First name", "Last name", "Email"}
	if err := writeTable(path, "User info", header, rows); err != nil {
		return "", err
	}
	logger.Info("wrote user list", "path", path, "users", len(users))
	return path, nil
}

func writeTable(path, sheetName string, header []string, rows [][]string) error {
	w, err := newWorkbook()
	if err != nil {
		return err
	}
	s, err := w.sheet(sheetName)
	if err != nil {
		_ = w.f.Close()
		return err
	}

	for col, h := range header {
		s.cell(col+1, 1, h, true)
		s.width(col+1, 20)
	}
	for r, row := range rows {
		for col, v := range row {
			s.cell(col+1, r+2, v, false)
		}
	}
	if s.err != nil {
		_ = w.f.Close()
		return fmt.Errorf("failed to write sheet %q: %w", sheetName, s.err)
	}
	return w.save(path)
}
