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

package capture

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ZaparooProject/zaparoo-snap/pkg/storage"
	"github.com/ZaparooProject/zaparoo-snap/pkg/testing/mocks"
	"github.com/ZaparooProject/zaparoo-snap/pkg/volume"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var captureTime = time.Date(2024, 1, 2, 3, 4, 5, 678*int(time.Millisecond), time.UTC)

const expectedName = "img_20240102_030405_678.jpg"

type mappedVolume struct {
	*volume.Memory
}

func (*mappedVolume) RealPath(p string) (string, error) {
	return "/mnt/card" + p, nil
}

func newCapturer(
	t *testing.T,
	vol storage.Volume,
	cmd *mocks.MockCommandExecutor,
	opts Options,
) *CommandCapturer {
	t.Helper()
	return NewCommandCapturer(
		storage.NewStore(vol, 0),
		cmd,
		clockwork.NewFakeClockAt(captureTime),
		opts,
	)
}

func writesFile(fs afero.Fs, p string) func(mock.Arguments) {
	return func(mock.Arguments) {
		_ = afero.WriteFile(fs, p, []byte("jpeg"), 0o644)
	}
}

func TestFileName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, expectedName, FileName("img_", ".jpg", captureTime))
	assert.Equal(t, "cap_20240102_030405_000.png",
		FileName("cap_", ".png", captureTime.Truncate(time.Second)))
}

func TestFileNamesSortInCaptureOrder(t *testing.T) {
	t.Parallel()

	earlier := FileName("img_", ".jpg", captureTime)
	later := FileName("img_", ".jpg", captureTime.Add(5*time.Millisecond))
	next := FileName("img_", ".jpg", captureTime.Add(time.Hour))
	assert.Less(t, earlier, later)
	assert.Less(t, later, next)
}

func TestBuildArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{
			name:     "no args",
			expected: []string{"/p.jpg"},
		},
		{
			name:     "appended without placeholder",
			args:     []string{"-r", "640x480"},
			expected: []string{"-r", "640x480", "/p.jpg"},
		},
		{
			name:     "placeholder replaced",
			args:     []string{"-o", "{path}", "-t", "1"},
			expected: []string{"-o", "/p.jpg", "-t", "1"},
		},
		{
			name:     "placeholder inside argument",
			args:     []string{"--output={path}"},
			expected: []string{"--output=/p.jpg"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, buildArgs(tt.args, "/p.jpg"))
		})
	}
}

func TestCaptureAndSave(t *testing.T) {
	t.Parallel()

	vol := volume.NewMemory(storage.CardSDHC, 0)
	require.NoError(t, afero.WriteFile(vol.Fs(), "/sdcard/old.jpg", []byte("x"), 0o644))

	saved := "/sdcard/" + expectedName
	cmd := &mocks.MockCommandExecutor{}
	cmd.On("CombinedOutput", mock.Anything, "fswebcam", []string{"-r", "640x480", saved}).
		Run(writesFile(vol.Fs(), saved)).
		Return([]byte("ok"), nil).
		Once()

	c := newCapturer(t, vol, cmd, Options{Command: "fswebcam", Args: []string{"-r", "640x480"}})

	p, err := c.CaptureAndSave(context.Background())
	require.NoError(t, err)
	assert.Equal(t, saved, p)
	assert.Equal(t, expectedName, storage.RelativeLink(p))
	cmd.AssertExpectations(t)
}

func TestCaptureAndSaveAtSlashRoot(t *testing.T) {
	t.Parallel()

	vol := volume.NewMemory(storage.CardSD, 0)
	require.NoError(t, afero.WriteFile(vol.Fs(), "/old.jpg", []byte("x"), 0o644))

	saved := "/" + expectedName
	cmd := &mocks.MockCommandExecutor{}
	cmd.On("CombinedOutput", mock.Anything, "snap", []string{saved}).
		Run(writesFile(vol.Fs(), saved)).
		Return([]byte{}, nil)

	p, err := newCapturer(t, vol, cmd, Options{Command: "snap"}).CaptureAndSave(context.Background())
	require.NoError(t, err)
	assert.Equal(t, saved, p)
}

func TestCaptureAndSaveUsesRealPath(t *testing.T) {
	t.Parallel()

	mem := volume.NewMemory(storage.CardSDHC, 0)
	require.NoError(t, afero.WriteFile(mem.Fs(), "/sdcard/old.jpg", []byte("x"), 0o644))
	vol := &mappedVolume{Memory: mem}

	saved := "/sdcard/" + expectedName
	cmd := &mocks.MockCommandExecutor{}
	cmd.On("CombinedOutput", mock.Anything, "libcamera-still",
		[]string{"-o", "/mnt/card" + saved}).
		Run(writesFile(mem.Fs(), saved)).
		Return([]byte{}, nil)

	c := newCapturer(t, vol, cmd, Options{
		Command: "libcamera-still",
		Args:    []string{"-o", "{path}"},
	})

	p, err := c.CaptureAndSave(context.Background())
	require.NoError(t, err)
	assert.Equal(t, saved, p)
	cmd.AssertExpectations(t)
}

func TestCaptureAndSaveFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		setup     func(*volume.Memory, *mocks.MockCommandExecutor)
		wantErr   error
		name      string
		command   string
		execCalls int
	}{
		{
			name:    "no command configured",
			wantErr: errNoCommand,
			setup:   func(*volume.Memory, *mocks.MockCommandExecutor) {},
		},
		{
			name:    "no card",
			command: "snap",
			wantErr: storage.ErrVolumeAbsent,
			setup: func(vol *volume.Memory, _ *mocks.MockCommandExecutor) {
				vol.SetCardType(storage.CardNone)
			},
		},
		{
			name:      "command fails",
			command:   "snap",
			execCalls: 1,
			setup: func(_ *volume.Memory, cmd *mocks.MockCommandExecutor) {
				cmd.On("CombinedOutput", mock.Anything, "snap", mock.Anything).
					Return([]byte("no camera"), errors.New("exit status 1"))
			},
		},
		{
			name:      "command writes nothing",
			command:   "snap",
			execCalls: 1,
			setup: func(_ *volume.Memory, cmd *mocks.MockCommandExecutor) {
				cmd.On("CombinedOutput", mock.Anything, "snap", mock.Anything).
					Return([]byte{}, nil)
			},
		},
		{
			name:      "command writes empty file",
			command:   "snap",
			execCalls: 1,
			setup: func(vol *volume.Memory, cmd *mocks.MockCommandExecutor) {
				cmd.On("CombinedOutput", mock.Anything, "snap", mock.Anything).
					Run(func(mock.Arguments) {
						_ = afero.WriteFile(vol.Fs(), "/sdcard/"+expectedName, nil, 0o644)
					}).
					Return([]byte{}, nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			vol := volume.NewMemory(storage.CardSDHC, 0)
			require.NoError(t, afero.WriteFile(vol.Fs(), "/sdcard/old.jpg", []byte("x"), 0o644))
			cmd := &mocks.MockCommandExecutor{}
			tt.setup(vol, cmd)

			p, err := newCapturer(t, vol, cmd, Options{Command: tt.command}).
				CaptureAndSave(context.Background())
			require.ErrorIs(t, err, storage.ErrCaptureFailed)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			}
			assert.Empty(t, p)
			cmd.AssertNumberOfCalls(t, "CombinedOutput", tt.execCalls)
		})
	}
}
