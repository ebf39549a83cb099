package source

import (
	"fmt"
	"io"
	"os"

	pb "gopkg.in/cheggaaa/pb.v1"
)

// progressReader reports bytes read from the input file on stderr
type progressReader struct {
	r   io.ReadCloser
	bar *pb.ProgressBar
}

// withProgress wraps f in a progress bar sized to the file
func withProgress(f *os.File) (io.ReadCloser, error) {
	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}

	bar := pb.New(int(fi.Size())).SetUnits(pb.U_BYTES_DEC).SetWidth(79)
	bar.Output = os.Stderr
	bar.Start()

	return &progressReader{
		r:   bar.NewProxyReader(f),
		bar: bar,
	}, nil
}

func (p *progressReader) Read(b []byte) (int, error) {
	return p.r.Read(b)
}

// Close closes the file and clears the progress line
func (p *progressReader) Close() error {
	p.bar.Output = nil
	p.bar.NotPrint = true
	p.bar.Finish()

	fmt.Fprintf(os.Stderr, "\033[2K\r")

	return p.r.Close()
}
