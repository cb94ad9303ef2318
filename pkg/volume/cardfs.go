// Zaparoo Snap
// Copyright (c) 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Zaparoo Snap.
//
// Zaparoo Snap is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Zaparoo Snap is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Zaparoo Snap.  If not, see <http://www.gnu.org/licenses/>.

package volume

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// cardFs only accepts absolute card paths. A relative name fails with
// os.ErrNotExist instead of resolving against the base directory or the
// process working directory, matching how the card's own filesystem
// treats names without a leading "/".
type cardFs struct {
	afero.Fs
}

// newCardFs exposes dir on the OS filesystem as a card.
func newCardFs(dir string) *cardFs {
	if dir == "/" {
		return &cardFs{Fs: afero.NewOsFs()}
	}
	return &cardFs{Fs: afero.NewBasePathFs(afero.NewOsFs(), dir)}
}

func relative(op, name string) error {
	if strings.HasPrefix(name, "/") {
		return nil
	}
	return &os.PathError{Op: op, Path: name, Err: os.ErrNotExist}
}

func (c *cardFs) Name() string {
	return "CardFs"
}

func (c *cardFs) Create(name string) (afero.File, error) {
	if err := relative("create", name); err != nil {
		return nil, err
	}
	return c.Fs.Create(name) //nolint:wrapcheck // passthrough
}

func (c *cardFs) Mkdir(name string, perm os.FileMode) error {
	if err := relative("mkdir", name); err != nil {
		return err
	}
	return c.Fs.Mkdir(name, perm) //nolint:wrapcheck // passthrough
}

func (c *cardFs) MkdirAll(name string, perm os.FileMode) error {
	if err := relative("mkdir", name); err != nil {
		return err
	}
	return c.Fs.MkdirAll(name, perm) //nolint:wrapcheck // passthrough
}

func (c *cardFs) Open(name string) (afero.File, error) {
	if err := relative("open", name); err != nil {
		return nil, err
	}
	return c.Fs.Open(name) //nolint:wrapcheck // passthrough
}

func (c *cardFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if err := relative("open", name); err != nil {
		return nil, err
	}
	return c.Fs.OpenFile(name, flag, perm) //nolint:wrapcheck // passthrough
}

func (c *cardFs) Remove(name string) error {
	if err := relative("remove", name); err != nil {
		return err
	}
	return c.Fs.Remove(name) //nolint:wrapcheck // passthrough
}

func (c *cardFs) RemoveAll(name string) error {
	if err := relative("remove", name); err != nil {
		return err
	}
	return c.Fs.RemoveAll(name) //nolint:wrapcheck // passthrough
}

func (c *cardFs) Rename(oldname, newname string) error {
	if err := relative("rename", oldname); err != nil {
		return err
	}
	if err := relative("rename", newname); err != nil {
		return err
	}
	return c.Fs.Rename(oldname, newname) //nolint:wrapcheck // passthrough
}

func (c *cardFs) Stat(name string) (os.FileInfo, error) {
	if err := relative("stat", name); err != nil {
		return nil, err
	}
	return c.Fs.Stat(name) //nolint:wrapcheck // passthrough
}

func (c *cardFs) LstatIfPossible(name string) (os.FileInfo, bool, error) {
	if err := relative("lstat", name); err != nil {
		return nil, false, err
	}
	if l, ok := c.Fs.(afero.Lstater); ok {
		return l.LstatIfPossible(name) //nolint:wrapcheck // passthrough
	}
	fi, err := c.Fs.Stat(name)
	return fi, false, err //nolint:wrapcheck // passthrough
}

func (c *cardFs) Chmod(name string, mode os.FileMode) error {
	if err := relative("chmod", name); err != nil {
		return err
	}
	return c.Fs.Chmod(name, mode) //nolint:wrapcheck // passthrough
}

func (c *cardFs) Chown(name string, uid, gid int) error {
	if err := relative("chown", name); err != nil {
		return err
	}
	return c.Fs.Chown(name, uid, gid) //nolint:wrapcheck // passthrough
}

func (c *cardFs) Chtimes(name string, atime, mtime time.Time) error {
	if err := relative("chtimes", name); err != nil {
		return err
	}
	return c.Fs.Chtimes(name, atime, mtime) //nolint:wrapcheck // passthrough
}
