package bridge

import (
	"bytes"
	"errors"
	"testing"

	"github.com/aligator/stage2/checkpoint"
	"github.com/golang/mock/gomock"
	"github.com/google/go-cmp/cmp"
)

func TestBridge_Modes(t *testing.T) {
	tests := []struct {
		name string
		// steps are run in order, the error of the last one is checked.
		steps    func(b *Bridge) error
		wantMode Mode
		wantErr  error
	}{
		{
			name:     "initial",
			steps:    func(b *Bridge) error { return nil },
			wantMode: RealMode,
		},
		{
			name:     "copy in real mode",
			steps:    func(b *Bridge) error { return b.Copy(0x100000, []byte{1}) },
			wantMode: RealMode,
			wantErr:  ErrInvalidMode,
		},
		{
			name:     "jump from real mode",
			steps:    func(b *Bridge) error { return b.Jump(0x100000) },
			wantMode: RealMode,
			wantErr:  ErrInvalidMode,
		},
		{
			name: "enter unreal mode twice",
			steps: func(b *Bridge) error {
				if err := b.EnterUnrealMode(); err != nil {
					return err
				}
				return b.EnterUnrealMode()
			},
			wantMode: UnrealMode,
			wantErr:  ErrInvalidMode,
		},
		{
			name: "jump",
			steps: func(b *Bridge) error {
				if err := b.EnterUnrealMode(); err != nil {
					return err
				}
				return b.Jump(0x100000)
			},
			wantMode: ProtectedMode,
		},
		{
			name: "copy after the jump",
			steps: func(b *Bridge) error {
				if err := b.EnterUnrealMode(); err != nil {
					return err
				}
				if err := b.Jump(0x100000); err != nil {
					return err
				}
				return b.Copy(0x100000, []byte{1})
			},
			wantMode: ProtectedMode,
			wantErr:  ErrInvalidMode,
		},
		{
			name: "jump twice",
			steps: func(b *Bridge) error {
				if err := b.EnterUnrealMode(); err != nil {
					return err
				}
				if err := b.Jump(0x100000); err != nil {
					return err
				}
				return b.Jump(0x100000)
			},
			wantMode: ProtectedMode,
			wantErr:  ErrInvalidMode,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New(NewSimMemory(), VerifyFirstByte)
			err := tt.steps(b)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil && checkpoint.Code(err) != 'M' {
				t.Errorf("Code() = %q, want 'M'", checkpoint.Code(err))
			}
			if b.Mode() != tt.wantMode {
				t.Errorf("Mode() = %v, want %v", b.Mode(), tt.wantMode)
			}
		})
	}
}

func TestBridge_Copy(t *testing.T) {
	data := []byte{0xAA, 0xBB, 0xCC, 0xDD}

	tests := []struct {
		name   string
		verify Verification
		dst    uint32
		src    []byte
		expect func(m *MockMemoryMockRecorder)
		want   error
	}{
		{
			name:   "first byte",
			verify: VerifyFirstByte,
			dst:    0x100000,
			src:    data,
			expect: func(m *MockMemoryMockRecorder) {
				m.CopyToProtectedMode(uint32(0x100000), data)
				m.ReadFromProtectedMode(uint32(0x100000)).Return(byte(0xAA))
			},
		},
		{
			name:   "first byte differs",
			verify: VerifyFirstByte,
			dst:    0x100000,
			src:    data,
			expect: func(m *MockMemoryMockRecorder) {
				m.CopyToProtectedMode(uint32(0x100000), data)
				m.ReadFromProtectedMode(uint32(0x100000)).Return(byte(0x00))
			},
			want: ErrVerificationMismatch,
		},
		{
			name:   "no verification",
			verify: VerifyNone,
			dst:    0x1000000,
			src:    data,
			expect: func(m *MockMemoryMockRecorder) {
				m.CopyToProtectedMode(uint32(0x1000000), data)
			},
		},
		{
			name:   "last byte differs",
			verify: VerifyAll,
			dst:    0x200000,
			src:    data,
			expect: func(m *MockMemoryMockRecorder) {
				m.CopyToProtectedMode(uint32(0x200000), data)
				m.ReadFromProtectedMode(uint32(0x200000)).Return(byte(0xAA))
				m.ReadFromProtectedMode(uint32(0x200001)).Return(byte(0xBB))
				m.ReadFromProtectedMode(uint32(0x200002)).Return(byte(0xCC))
				m.ReadFromProtectedMode(uint32(0x200003)).Return(byte(0x00))
			},
			want: ErrVerificationMismatch,
		},
		{
			name:   "empty",
			verify: VerifyAll,
			dst:    0x200000,
			expect: func(m *MockMemoryMockRecorder) {},
		},
		{
			name:   "up to the end of the address space",
			verify: VerifyNone,
			dst:    0xFFFFFFFC,
			src:    data,
			expect: func(m *MockMemoryMockRecorder) {
				m.CopyToProtectedMode(uint32(0xFFFFFFFC), data)
			},
		},
		{
			name:   "beyond the end of the address space",
			verify: VerifyNone,
			dst:    0xFFFFFFFD,
			src:    data,
			expect: func(m *MockMemoryMockRecorder) {},
			want:   ErrAddressRange,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mem := NewMockMemory(ctrl)
			mem.EXPECT().EnterUnrealMode()
			tt.expect(mem.EXPECT())

			b := New(mem, tt.verify)
			if err := b.EnterUnrealMode(); err != nil {
				t.Fatal(err)
			}
			if err := b.Copy(tt.dst, tt.src); !errors.Is(err, tt.want) {
				t.Errorf("Copy() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestBridge_Jump(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mem := NewMockMemory(ctrl)
	gomock.InOrder(
		mem.EXPECT().EnterUnrealMode(),
		mem.EXPECT().EnterProtectedModeAndJump(uint32(0x100000)),
	)

	b := New(mem, VerifyFirstByte)
	if err := b.EnterUnrealMode(); err != nil {
		t.Fatal(err)
	}
	if err := b.Jump(0x100000); err != nil {
		t.Fatal(err)
	}
}

func TestSimMemory_Canary(t *testing.T) {
	data := bytes.Repeat([]byte{0x5A, 0xA5}, 4096)

	tests := []struct {
		name         string
		ignoreUnreal bool
		dst          uint32
		want         error
	}{
		{name: "at 1 MiB", dst: 0x100000},
		{name: "across 1 MiB", dst: 0xFF000},
		{name: "at 16 MiB", dst: 0x1000000},
		{name: "across 16 MiB", dst: 0xFFFFFF},
		{name: "below 1 MiB without unreal mode", ignoreUnreal: true, dst: 0x90000},
		{name: "wrap at 1 MiB", ignoreUnreal: true, dst: 0x100000, want: ErrVerificationMismatch},
		{name: "wrap at 16 MiB", ignoreUnreal: true, dst: 0x1000000, want: ErrVerificationMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := NewSimMemory()
			mem.IgnoreUnreal = tt.ignoreUnreal
			b := New(mem, VerifyFirstByte)
			if err := b.EnterUnrealMode(); err != nil {
				t.Fatal(err)
			}

			err := b.Copy(tt.dst, data)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Copy() error = %v, want %v", err, tt.want)
			}
			if err != nil {
				if checkpoint.Code(err) != 'V' {
					t.Errorf("Code() = %q, want 'V'", checkpoint.Code(err))
				}
				return
			}
			if diff := cmp.Diff(data, mem.Read(tt.dst, len(data))); diff != "" {
				t.Errorf("Read() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSimMemory_Read(t *testing.T) {
	mem := NewSimMemory()
	mem.EnterUnrealMode()
	mem.CopyToProtectedMode(0x1FFE, []byte{1, 2, 3, 4})

	if diff := cmp.Diff([]byte{0, 1, 2, 3, 4, 0}, mem.Read(0x1FFD, 6)); diff != "" {
		t.Errorf("Read() mismatch (-want +got):\n%s", diff)
	}
	if mem.Pages() != 2 {
		t.Errorf("Pages() = %d, want 2", mem.Pages())
	}
	if got := mem.ReadFromProtectedMode(0x500000); got != 0 {
		t.Errorf("ReadFromProtectedMode() of untouched memory = %#x, want 0", got)
	}
	if mem.Pages() != 2 {
		t.Errorf("reading allocated a page")
	}
}

func TestVerification_Set(t *testing.T) {
	tests := []struct {
		in      string
		want    Verification
		wantErr bool
	}{
		{in: "first", want: VerifyFirstByte},
		{in: "none", want: VerifyNone},
		{in: "all", want: VerifyAll},
		{in: "some", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var v Verification
			err := v.Set(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Set() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && (v != tt.want || v.String() != tt.in) {
				t.Errorf("Set() = %v, want %v", v, tt.want)
			}
		})
	}
}
