/*
Package reconcile keeps a directory of generated config files in line with the
list of projects known by the doc-thor server.

There are three kinds of files in the output directory:

 1. Managed files -- `<slug>.conf`, one per project. These are owned by
    confgen, and are created, rewritten and removed as projects change.
 2. Protected files -- files whose name starts with the protected prefix
    (`00-` by default). These belong to someone else and are never read,
    written or removed, even if a project's file would have the same name.
 3. Everything else. Files without the managed suffix, and directories, are
    left alone.

Each reconciliation computes a Plan by rendering every project and diffing
the result against a Snapshot of the managed files on disk. Only the files of
current projects are read. The others are just listed, so that they can be
pruned. Applying the Plan writes the files whose content differs, and removes
the managed files whose project is gone. Running it twice with the same
projects does nothing the second time.
*/
package reconcile
