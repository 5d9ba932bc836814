// Package nsdf reads and writes NSDF files: neuroscience simulation data
// together with the model that produced it.
//
// A file stores variables per sampling regime (uniform, nonuniform, event
// and static) and per population of sources. Each population has a map
// dataset listing its source ids; the map's order is the row order of every
// variable written against it. Nonuniform and event data are laid out
// according to the file's dialect:
//
//	ONED       one 1-D dataset per source, each with its own times
//	VLEN       one ragged dataset per variable, plus ragged times
//	NANPADDED  one 2-D dataset per variable, rows padded with NaN
//	NUREGULAR  one 2-D dataset per variable with times shared by all rows
//
// The model tree is stored under /model/modeltree. When a map is created,
// the closest common ancestor of its sources in the tree is linked to it,
// in both directions.
//
// Writing a uniform variable:
//
//	w, err := nsdf.Create("sim.nsdf", nsdf.ONED)
//	if err != nil {
//	    return err
//	}
//	defer w.Close()
//
//	m, err := w.AddUniformMap("cells", []string{"c0", "c1"})
//	if err != nil {
//	    return err
//	}
//	vm := nsdf.NewUniformData("Vm", "mV", 0.1, "ms")
//	vm.Put("c0", c0)
//	vm.Put("c1", c1)
//	err = w.AddUniformData(m, vm, false)
//
// Files are container files; see package container.
package nsdf
