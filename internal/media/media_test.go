package media

import "testing"

func TestOrientationTransposed(t *testing.T) {
	cases := map[Orientation]bool{
		OrientationOriginal:       false,
		OrientationFlipH:          false,
		OrientationRotate180:      false,
		OrientationFlipHRotate180: false,
		OrientationFlipHRotate270: true,
		OrientationRotate90:       true,
		OrientationFlipHRotate90:  true,
		OrientationRotate270:      true,
	}
	for o, want := range cases {
		if got := o.Transposed(); got != want {
			t.Errorf("Orientation(%d).Transposed() = %v, want %v", o, got, want)
		}
	}
}

func TestTypeOf(t *testing.T) {
	for ext, want := range map[string]Type{"jpg": TypeJPEG, "jpeg": TypeJPEG, "png": TypePNG, "arw": TypeARW, "cr3": TypeCR3, "avif": TypeAVIF} {
		got, ok := TypeOf(ext)
		if !ok || got != want {
			t.Errorf("TypeOf(%q) = %v, %v; want %v, true", ext, got, ok, want)
		}
	}
	if _, ok := TypeOf("txt"); ok {
		t.Errorf("TypeOf(txt) should not be indexable")
	}
}
