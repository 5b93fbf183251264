package archive

import (
	"context"
	"io"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/google/renameio"
	"github.com/orcaman/writerseeker"
	"golang.org/x/sys/unix"
	"golang.org/x/xerrors"

	"github.com/raffaellobertini/bra/internal/chunk"
	"github.com/raffaellobertini/bra/internal/crc32c"
	"github.com/raffaellobertini/bra/internal/dirtree"
	"github.com/raffaellobertini/bra/internal/huffman"
	"github.com/raffaellobertini/bra/internal/pathsan"
)

// translateChunkErr maps the chunk/huffman package's own sentinels
// (chunk.ErrOversizedField, huffman.ErrInvalidLengths,
// huffman.ErrTruncatedPayload) onto the archive-level sentinels
// (ErrOversizedField, ErrInvalidCodes) that exitcode.go classifies as
// spec.md §6 data errors -- the same translation format.go/entry.go
// already do at the point they detect ErrBadMagic/ErrCrcMismatch.
// Without this, a corrupt chunk header or malformed Huffman table
// would propagate unwrapped and fall through to the generic
// usage/session exit code instead of the data-error one.
func translateChunkErr(err error) error {
	switch {
	case err == nil:
		return nil
	case xerrors.Is(err, chunk.ErrOversizedField):
		return xerrors.Errorf("%s: %w", err, ErrOversizedField)
	case xerrors.Is(err, huffman.ErrInvalidLengths), xerrors.Is(err, huffman.ErrTruncatedPayload):
		return xerrors.Errorf("%s: %w", err, ErrInvalidCodes)
	default:
		return err
	}
}

// Logger is the log sink a session borrows for its lifetime, in place
// of a global logger -- spec.md §9's "function-pointer log sink"
// redesign.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}

func logOrNop(l Logger) Logger {
	if l == nil {
		return nopLogger{}
	}
	return l
}

// OverwriteDecision is the result of consulting the overwrite policy
// for one existing output path.
type OverwriteDecision int

const (
	Overwrite OverwriteDecision = iota
	Skip
)

// OverwritePolicy is the shared, mutable state of an extraction
// session's overwrite handling (spec.md §6).
type OverwritePolicy int

const (
	Ask OverwritePolicy = iota
	AlwaysYes
	AlwaysNo
)

// OverwriteCallback is consulted for an existing output path when
// policy is Ask. It may mutate *policy to escalate to AlwaysYes or
// AlwaysNo for the remainder of the session.
type OverwriteCallback func(path string, policy *OverwritePolicy) OverwriteDecision

func resolveOverwrite(path string, policy *OverwritePolicy, cb OverwriteCallback) OverwriteDecision {
	switch *policy {
	case AlwaysYes:
		return Overwrite
	case AlwaysNo:
		return Skip
	default:
		if cb == nil {
			return Overwrite
		}
		return cb(path, policy)
	}
}

// CompressionMode selects whether Create attempts the BWT/MTF/Huffman
// pipeline at all.
type CompressionMode int

const (
	CompressionStored CompressionMode = iota
	CompressionCompressed
)

// State is a Session's position in the Idle -> Open -> Closed
// lifecycle (spec.md §4.I). A Session runs exactly one operation.
type State int

const (
	StateIdle State = iota
	StateOpen
	StateClosed
)

// Session drives one archive operation end to end. The zero value is
// ready to use; each Session instance is single-use.
type Session struct {
	state State
}

func (s *Session) enter() error {
	if s.state != StateIdle {
		return xerrors.New("archive: session already used")
	}
	s.state = StateOpen
	return nil
}

func (s *Session) leave() { s.state = StateClosed }

// CreateOptions configures Create.
type CreateOptions struct {
	// SFX requests a self-extracting output; StubPath must then name
	// the host executable to prepend.
	SFX      bool
	StubPath string

	Recursive   bool
	Compression CompressionMode
	OverwriteCB OverwriteCallback
	Log         Logger
}

// fileSource is one FILE entry waiting to be written: its containing
// directory node index (root for top-level files) and where to read
// its bytes from on disk.
type fileSource struct {
	parent uint32
	name   string
	path   string
	size   int64
}

// Create builds a new archive at output from inputs (each a path
// relative to the process's working directory). It implements spec.md
// §4.I's create flow.
func (s *Session) Create(ctx context.Context, output string, inputs []string, opts CreateOptions) error {
	if err := s.enter(); err != nil {
		return err
	}
	defer s.leave()
	log := logOrNop(opts.Log)

	exists, err := pathsan.Exists(output)
	if err != nil {
		return err
	}
	if exists {
		policy := AlwaysYes
		if opts.OverwriteCB != nil {
			policy = Ask
		}
		if resolveOverwrite(output, &policy, opts.OverwriteCB) == Skip {
			log.Infof("skip %s (exists)", output)
			return nil
		}
	}

	tree, files, err := buildTree(inputs, opts.Recursive)
	if err != nil {
		return xerrors.Errorf("building directory tree: %w", err)
	}

	if opts.SFX {
		return createSFX(ctx, output, tree, files, opts, log)
	}
	return createPlain(ctx, output, tree, files, opts, log)
}

func createPlain(ctx context.Context, output string, tree *dirtree.Tree, files []fileSource, opts CreateOptions, log Logger) error {
	pf, err := renameio.TempFile("", output)
	if err != nil {
		return xerrors.Errorf("creating %q: %w", output, err)
	}
	defer pf.Cleanup()

	if err := writeArchiveBody(ctx, pf, tree, files, opts.Compression, log); err != nil {
		return err
	}
	if err := pf.CloseAtomicallyReplace(); err != nil {
		return xerrors.Errorf("finalizing %q: %w", output, err)
	}
	log.Infof("created %s", output)
	return nil
}

func createSFX(ctx context.Context, output string, tree *dirtree.Tree, files []fileSource, opts CreateOptions, log Logger) (err error) {
	if opts.StubPath == "" {
		return xerrors.Errorf("sfx output requires a stub binary: %w", ErrUnsupported)
	}

	out, err := os.OpenFile(output, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return xerrors.Errorf("creating %q: %w", output, ErrSFXIO)
	}
	defer func() {
		if err != nil {
			out.Close()
			os.Remove(output)
		}
	}()

	stub, err := os.Open(opts.StubPath)
	if err != nil {
		return xerrors.Errorf("opening stub %q: %w", opts.StubPath, ErrSFXIO)
	}
	_, err = io.Copy(out, stub)
	stub.Close()
	if err != nil {
		return xerrors.Errorf("copying stub into %q: %w", output, ErrSFXIO)
	}

	headerOffset, err := out.Seek(0, io.SeekCurrent)
	if err != nil {
		return xerrors.Errorf("locating header offset: %w", ErrSFXIO)
	}

	if err = writeArchiveBody(ctx, out, tree, files, opts.Compression, log); err != nil {
		return err
	}
	if err = WriteFooter(out, Footer{HeaderOffset: headerOffset}); err != nil {
		return xerrors.Errorf("writing sfx footer: %w", ErrSFXIO)
	}
	if err = out.Close(); err != nil {
		return xerrors.Errorf("closing %q: %w", output, ErrSFXIO)
	}
	if err = unix.Chmod(output, 0755); err != nil {
		return xerrors.Errorf("setting executable bit on %q: %w", output, ErrSFXIO)
	}
	log.Infof("created sfx %s", output)
	return nil
}

// buildTree sanitizes and classifies every input, producing the
// in-memory directory tree and the flat list of files to be written,
// per spec.md §4.I create-flow step 2.
func buildTree(inputs []string, recursive bool) (*dirtree.Tree, []fileSource, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, nil, xerrors.Errorf("getwd: %w", err)
	}

	tree := dirtree.New()
	var files []fileSource

	for _, in := range inputs {
		rel, err := pathsan.Sanitize(wd, in)
		if err != nil {
			return nil, nil, xerrors.Errorf("%q: %w", in, ErrPathUnsafe)
		}
		info, err := os.Lstat(in)
		if err != nil {
			return nil, nil, xerrors.Errorf("stat %q: %w", in, err)
		}
		comps := strings.Split(rel, "/")

		switch {
		case info.IsDir():
			node := tree.Insert(comps)
			if recursive {
				if err := walkDir(tree, node.Index, in, &files); err != nil {
					return nil, nil, err
				}
			}
		case info.Mode().IsRegular():
			parent := tree.Insert(comps[:len(comps)-1])
			files = append(files, fileSource{
				parent: parent.Index,
				name:   comps[len(comps)-1],
				path:   in,
				size:   info.Size(),
			})
		default:
			return nil, nil, xerrors.Errorf("%q: %w", in, ErrUnsupported)
		}
	}
	return tree, files, nil
}

func walkDir(tree *dirtree.Tree, parentIndex uint32, root string, files *[]fileSource) error {
	entries, err := os.ReadDir(root)
	if err != nil {
		return xerrors.Errorf("reading dir %q: %w", root, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, e := range entries {
		full := root + "/" + e.Name()
		info, err := e.Info()
		if err != nil {
			return xerrors.Errorf("stat %q: %w", full, err)
		}
		switch {
		case info.IsDir():
			child, err := tree.InsertAtParent(parentIndex, e.Name())
			if err != nil {
				return err
			}
			if err := walkDir(tree, child.Index, full, files); err != nil {
				return err
			}
		case info.Mode().IsRegular():
			*files = append(*files, fileSource{parent: parentIndex, name: e.Name(), path: full, size: info.Size()})
		default:
			// SYMLINK and other special files: unsupported, silently
			// excluded from a recursive walk (an explicit symlink
			// named on the command line instead fails loudly above).
		}
	}
	return nil
}

// dfsPreOrder returns every node index in the tree in depth-first
// pre-order, root first -- spec.md §4.I create-flow step 4's required
// emission order, computed independently of node insertion order.
func dfsPreOrder(tree *dirtree.Tree) []uint32 {
	var order []uint32
	var visit func(idx uint32)
	visit = func(idx uint32) {
		order = append(order, idx)
		node, err := tree.Node(idx)
		if err != nil {
			return
		}
		for _, c := range node.Children {
			visit(c)
		}
	}
	visit(dirtree.RootIndex)
	return order
}

func writeArchiveBody(ctx context.Context, w io.Writer, tree *dirtree.Tree, files []fileSource, mode CompressionMode, log Logger) error {
	order := dfsPreOrder(tree)

	filesByParent := make(map[uint32][]fileSource)
	for _, f := range files {
		filesByParent[f.parent] = append(filesByParent[f.parent], f)
	}

	total := uint64(len(files))
	for _, idx := range order {
		if idx != dirtree.RootIndex {
			total++
		}
	}
	if total > math.MaxUint32 {
		return xerrors.Errorf("%d entries: %w", total, ErrTooManyEntries)
	}
	numFiles := uint32(total)

	if err := WriteHeader(w, Header{NumFiles: numFiles}); err != nil {
		return err
	}

	for _, idx := range order {
		if err := ctx.Err(); err != nil {
			return xerrors.Errorf("create: %w", ErrUserAbort)
		}
		node, err := tree.Node(idx)
		if err != nil {
			return err
		}

		if idx != dirtree.RootIndex {
			if err := writeDirEntry(w, node); err != nil {
				return err
			}
			log.Infof("%s/", tree.ReconstructPath(node))
		}

		siblings := filesByParent[idx]
		sort.Slice(siblings, func(i, j int) bool { return siblings[i].name < siblings[j].name })
		for _, f := range siblings {
			if err := ctx.Err(); err != nil {
				return xerrors.Errorf("create: %w", ErrUserAbort)
			}
			if err := writeFileEntry(w, f, mode); err != nil {
				return err
			}
			log.Infof("%s", entryPath(tree.ReconstructPath(node), f.name))
		}
	}
	return nil
}

func writeDirEntry(w io.Writer, node *dirtree.Node) error {
	t := TypeDir
	if node.Parent != dirtree.RootIndex {
		t = TypeSubdir
	}
	attr := Attributes(t, CompStored)
	crc, err := WriteCommonPrefix(w, attr, node.Name)
	if err != nil {
		return err
	}
	if t == TypeSubdir {
		if crc, err = WriteSubdirTail(w, crc, node.Parent); err != nil {
			return err
		}
	}
	return WriteTrailingCRC(w, crc)
}

func writeFileEntry(w io.Writer, f fileSource, mode CompressionMode) error {
	src, err := os.Open(f.path)
	if err != nil {
		return xerrors.Errorf("opening %q: %w", f.path, err)
	}
	defer src.Close()

	useCompressed := false
	var scratch writerseeker.WriterSeeker
	var cres chunk.CompressResult

	if mode == CompressionCompressed && f.size > 0 {
		if cres, err = chunk.CompressToScratch(&scratch, src, f.size); err != nil {
			return xerrors.Errorf("compressing %q: %w", f.path, translateChunkErr(err))
		}
		if cres.Size < f.size {
			useCompressed = true
		} else if _, err := src.Seek(0, io.SeekStart); err != nil {
			return xerrors.Errorf("rewinding %q: %w", f.path, err)
		}
	}

	attr := Attributes(TypeFile, CompStored)
	if useCompressed {
		attr = Attributes(TypeFile, CompCompressed)
	}
	crc, err := WriteCommonPrefix(w, attr, f.name)
	if err != nil {
		return err
	}

	dataSize := uint64(f.size)
	if useCompressed {
		dataSize = uint64(cres.Size)
	}
	if crc, err = WriteFileTail(w, crc, dataSize); err != nil {
		return err
	}

	switch {
	case useCompressed:
		if _, err := io.Copy(w, scratch.Reader()); err != nil {
			return xerrors.Errorf("writing %q payload: %w", f.path, err)
		}
		crc = crc32c.Combine(crc, cres.PayloadCRC, cres.PayloadLen)
	default:
		if crc, err = chunk.CopyFile(w, src, f.size, crc); err != nil {
			return xerrors.Errorf("writing %q payload: %w", f.path, err)
		}
	}

	return WriteTrailingCRC(w, crc)
}

func entryPath(parentPath, name string) string {
	if parentPath == "" {
		return name
	}
	return parentPath + "/" + name
}

// openArchive opens path for reading and, for sfx, locates and
// validates the embedded header via its footer (spec.md §4.H
// "SFX-mode open").
func openArchive(path string, sfx bool) (*os.File, Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Header{}, xerrors.Errorf("opening %q: %w", path, err)
	}
	if sfx {
		info, err := f.Stat()
		if err != nil {
			f.Close()
			return nil, Header{}, xerrors.Errorf("stat %q: %w", path, err)
		}
		footer, err := ReadFooter(f, info.Size())
		if err != nil {
			f.Close()
			return nil, Header{}, xerrors.Errorf("%q is not a valid sfx file: %w", path, err)
		}
		if _, err := f.Seek(footer.HeaderOffset, io.SeekStart); err != nil {
			f.Close()
			return nil, Header{}, xerrors.Errorf("seeking to header: %w", ErrSFXIO)
		}
	}
	h, err := ReadHeader(f)
	if err != nil {
		f.Close()
		return nil, Header{}, xerrors.Errorf("%q: %w", path, err)
	}
	return f, h, nil
}

func skipPayload(f *os.File, dataSize uint64) error {
	if _, err := f.Seek(int64(dataSize), io.SeekCurrent); err != nil {
		return xerrors.Errorf("skipping payload: %w", err)
	}
	return nil
}

func readPayload(r io.Reader, dst io.Writer, e Entry) (uint32, error) {
	switch e.Comp {
	case CompStored:
		crc, err := chunk.CopyFile(dst, r, int64(e.DataSize), e.CRC)
		return crc, translateChunkErr(err)
	case CompCompressed:
		crc, err := chunk.DecompressFile(dst, r, int64(e.DataSize), e.CRC)
		return crc, translateChunkErr(err)
	default:
		return e.CRC, xerrors.Errorf("compression %d: %w", e.Comp, ErrUnsupported)
	}
}

// ExtractOptions configures Extract.
type ExtractOptions struct {
	OverwriteCB OverwriteCallback
	Log         Logger
}

// Extract reads archivePath (sfx selects SFX-mode open) and writes its
// contents under outputDir, implementing spec.md §4.I's extract flow.
func (s *Session) Extract(ctx context.Context, archivePath string, sfx bool, outputDir string, opts ExtractOptions) error {
	if err := s.enter(); err != nil {
		return err
	}
	defer s.leave()
	log := logOrNop(opts.Log)

	f, header, err := openArchive(archivePath, sfx)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return xerrors.Errorf("creating %q: %w", outputDir, err)
	}
	origWD, err := os.Getwd()
	if err != nil {
		return xerrors.Errorf("getwd: %w", err)
	}
	if err := os.Chdir(outputDir); err != nil {
		return xerrors.Errorf("entering %q: %w", outputDir, err)
	}
	defer os.Chdir(origWD)

	tree := dirtree.New()
	currentDir := uint32(dirtree.RootIndex)
	policy := AlwaysYes
	if opts.OverwriteCB != nil {
		policy = Ask
	}

	for i := uint32(0); i < header.NumFiles; i++ {
		if err := ctx.Err(); err != nil {
			return xerrors.Errorf("extract: %w", ErrUserAbort)
		}
		e, node, err := ReadEntry(f, tree)
		if err != nil {
			return xerrors.Errorf("entry %d: %w", i, err)
		}

		switch e.Type {
		case TypeDir, TypeSubdir:
			currentDir = node.Index
			path := tree.ReconstructPath(node)
			if err := os.MkdirAll(path, 0755); err != nil {
				return xerrors.Errorf("creating %q: %w", path, err)
			}
			if err := ReadAndVerifyCRC(f, e.CRC); err != nil {
				return xerrors.Errorf("%s: %w", path, err)
			}
			log.Infof("%s/", path)

		case TypeFile:
			parentNode, _ := tree.Node(currentDir)
			path := entryPath(tree.ReconstructPath(parentNode), e.Name)

			decision := Overwrite
			exists, err := pathsan.Exists(path)
			if err != nil {
				return err
			}
			if exists {
				decision = resolveOverwrite(path, &policy, opts.OverwriteCB)
			}
			if decision == Skip {
				if err := skipPayload(f, e.DataSize); err != nil {
					return err
				}
				if _, err := ReadTrailingCRC(f); err != nil {
					return err
				}
				log.Infof("skip %s", path)
				continue
			}

			out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
			if err != nil {
				return xerrors.Errorf("creating %q: %w", path, err)
			}
			crc, err := readPayload(f, out, e)
			closeErr := out.Close()
			if err != nil {
				return xerrors.Errorf("%s: %w", path, err)
			}
			if closeErr != nil {
				return xerrors.Errorf("closing %q: %w", path, closeErr)
			}
			if err := ReadAndVerifyCRC(f, crc); err != nil {
				return xerrors.Errorf("%s: %w", path, err)
			}
			log.Infof("%s", path)

		default:
			return xerrors.Errorf("entry %d: %w", i, ErrUnsupported)
		}
	}
	return nil
}

// List reads archivePath and logs one line per entry, implementing
// spec.md §4.I's list flow. It never writes output and never reads a
// FILE entry's payload.
func (s *Session) List(ctx context.Context, archivePath string, sfx bool, log Logger) error {
	if err := s.enter(); err != nil {
		return err
	}
	defer s.leave()
	log = logOrNop(log)

	f, header, err := openArchive(archivePath, sfx)
	if err != nil {
		return err
	}
	defer f.Close()

	tree := dirtree.New()
	currentDir := uint32(dirtree.RootIndex)

	for i := uint32(0); i < header.NumFiles; i++ {
		if err := ctx.Err(); err != nil {
			return xerrors.Errorf("list: %w", ErrUserAbort)
		}
		e, node, err := ReadEntry(f, tree)
		if err != nil {
			return xerrors.Errorf("entry %d: %w", i, err)
		}

		switch e.Type {
		case TypeDir, TypeSubdir:
			currentDir = node.Index
			if err := ReadAndVerifyCRC(f, e.CRC); err != nil {
				return xerrors.Errorf("entry %d: %w", i, err)
			}
			log.Infof("%s/", tree.ReconstructPath(node))

		case TypeFile:
			parentNode, _ := tree.Node(currentDir)
			path := entryPath(tree.ReconstructPath(parentNode), e.Name)
			if err := skipPayload(f, e.DataSize); err != nil {
				return err
			}
			if _, err := ReadTrailingCRC(f); err != nil {
				return xerrors.Errorf("entry %d: %w", i, err)
			}
			log.Infof("%10d  %s", e.DataSize, path)

		default:
			return xerrors.Errorf("entry %d: %w", i, ErrUnsupported)
		}
	}
	return nil
}

// Test reads archivePath and runs the full decode pipeline over every
// FILE entry without writing output, implementing spec.md §4.I's test
// flow: any CRC mismatch fails the archive.
func (s *Session) Test(ctx context.Context, archivePath string, sfx bool, log Logger) error {
	if err := s.enter(); err != nil {
		return err
	}
	defer s.leave()
	log = logOrNop(log)

	f, header, err := openArchive(archivePath, sfx)
	if err != nil {
		return err
	}
	defer f.Close()

	tree := dirtree.New()
	currentDir := uint32(dirtree.RootIndex)

	for i := uint32(0); i < header.NumFiles; i++ {
		if err := ctx.Err(); err != nil {
			return xerrors.Errorf("test: %w", ErrUserAbort)
		}
		e, node, err := ReadEntry(f, tree)
		if err != nil {
			return xerrors.Errorf("entry %d: %w", i, err)
		}

		switch e.Type {
		case TypeDir, TypeSubdir:
			currentDir = node.Index
			if err := ReadAndVerifyCRC(f, e.CRC); err != nil {
				return xerrors.Errorf("entry %d: %w", i, err)
			}
			log.Infof("ok  %s/", tree.ReconstructPath(node))

		case TypeFile:
			parentNode, _ := tree.Node(currentDir)
			path := entryPath(tree.ReconstructPath(parentNode), e.Name)
			crc, err := readPayload(f, io.Discard, e)
			if err != nil {
				return xerrors.Errorf("%s: %w", path, err)
			}
			if err := ReadAndVerifyCRC(f, crc); err != nil {
				return xerrors.Errorf("%s: %w", path, err)
			}
			log.Infof("ok  %s", path)

		default:
			return xerrors.Errorf("entry %d: %w", i, ErrUnsupported)
		}
	}
	return nil
}
